package middlewares

import (
	"crypto/subtle"
	"github.com/gin-gonic/gin"
	"net"
	"net/http"
	"strings"
)

// Auth lets loopback clients through; everyone else needs the bearer token.
// Browsers cannot set headers on websocket requests, so ?token= is accepted too.
func (m *Middlewares) Auth(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isLoopback(c.Request.RemoteAddr) {
			c.Next()
			return
		}

		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || token == c.GetHeader("Authorization") {
			token = c.Query("token")
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
