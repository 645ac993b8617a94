package api

import (
	"errors"
	"fmt"
)

var (
	ErrUserAuthNotCompleted = errors.New("user auth failed")
	ErrBadRequest           = errors.New("bad request")
	ErrRateLimited          = errors.New("rate limited")
	ErrNotFound             = errors.New("not found")
)

type TwitchAPIError struct {
	Status  int
	Message string
}

func (e *TwitchAPIError) Error() string {
	return fmt.Sprintf("twitch API returned %d: %s", e.Status, e.Message)
}
