package main

import (
	"log"
	"metacity/internal/pkg/app"
)

func main() {
	if err := app.New(); err != nil {
		log.Fatal(err)
	}
}
