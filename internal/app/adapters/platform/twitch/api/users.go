package api

import (
	"context"
	"fmt"
	"github.com/tidwall/gjson"
	"metacity/internal/app/ports"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func (t *Twitch) CurrentUser(ctx context.Context) (*ports.TwitchUser, error) {
	raw, err := t.doTwitchRequest(ctx, twitchRequest{
		Method: http.MethodGet,
		URL:    t.cfg.HelixURL + "/users",
	})
	if err != nil {
		return nil, err
	}

	data := gjson.GetBytes(raw, "data.0")
	if !data.Exists() {
		return nil, fmt.Errorf("current user: %w", ErrNotFound)
	}

	user := userFromJSON(data)
	t.users.Set(user.Login, user.ID)
	return user, nil
}

// UserID resolves a login through the cache, falling back to helix.
func (t *Twitch) UserID(ctx context.Context, login string) (string, error) {
	login = strings.ToLower(strings.TrimPrefix(login, "#"))
	if id, ok := t.users.Get(login); ok {
		return id, nil
	}

	params := url.Values{}
	params.Set("login", login)

	raw, err := t.doTwitchRequest(ctx, twitchRequest{
		Method: http.MethodGet,
		URL:    t.cfg.HelixURL + "/users?" + params.Encode(),
	})
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(raw, "data.0.id").String()
	if id == "" {
		return "", fmt.Errorf("user %q: %w", login, ErrNotFound)
	}

	t.users.Set(login, id)
	return id, nil
}

func userFromJSON(data gjson.Result) *ports.TwitchUser {
	createdAt, _ := time.Parse(time.RFC3339, data.Get("created_at").String())

	return &ports.TwitchUser{
		ID:              data.Get("id").String(),
		Login:           data.Get("login").String(),
		DisplayName:     data.Get("display_name").String(),
		Type:            data.Get("type").String(),
		BroadcasterType: data.Get("broadcaster_type").String(),
		Description:     data.Get("description").String(),
		ProfileImageURL: data.Get("profile_image_url").String(),
		OfflineImageURL: data.Get("offline_image_url").String(),
		CreatedAt:       createdAt,
	}
}
