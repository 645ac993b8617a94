package handlers

import (
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"html"
	"metacity/internal/app/adapters/chat"
	"net/http"
)

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>MetaCity Streamer Dashboard</title>
<style>
  body { display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #9146FF; font-family: sans-serif; }
  a.button {
	padding: 1em 2em;
	font-size: 1.2em;
	color: white;
	background-color: #9146FF;
	border: 2px solid white;
	border-radius: 6px;
	text-decoration: none;
	font-weight: bold;
	transition: background 0.3s, color 0.3s;
  }
  a.button:hover { background-color: white; color: #9146FF; }
  p { color: white; font-size: 1.2em; }
</style>
</head>
<body>
%s
</body>
</html>`

func (h *Handlers) Index(c *gin.Context) {
	snap, err := h.session.Snapshot()
	if err != nil {
		h.fail(c, err)
		return
	}

	body := `<a class="button" href="/auth/login">Connect with Twitch</a>`
	if snap.Authenticated && snap.User != nil {
		body = fmt.Sprintf("<p>Streaming as %s</p>", html.EscapeString(snap.User.DisplayName))
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(indexPage, body)))
}

func (h *Handlers) Login(c *gin.Context) {
	authURL, err := h.session.LoginURL()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// Callback finishes the authorization code flow Twitch redirects back to.
func (h *Handlers) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		c.String(http.StatusBadRequest, "Twitch authorization failed: %s", c.DefaultQuery("error_description", reason))
		return
	}

	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Missing authorization code")
		return
	}

	err := h.session.CompleteLogin(c.Request.Context(), code, c.Query("state"))
	switch {
	case errors.Is(err, chat.ErrStateMismatch):
		c.String(http.StatusBadRequest, "Authorization expired, please try again")
		return
	case err != nil:
		h.log.Error("Twitch login failed", err)
		c.String(http.StatusBadGateway, "Twitch login failed: %v", err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *Handlers) Logout(c *gin.Context) {
	if err := h.session.Logout(); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
