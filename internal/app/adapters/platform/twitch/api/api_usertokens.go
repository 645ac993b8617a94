package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/tidwall/gjson"
	"io"
	"log/slog"
	"metacity/internal/app/infrastructure/config"
	"net/http"
	"net/url"
	"strings"
)

func (t *Twitch) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", t.cfg.ClientID)
	params.Set("redirect_uri", t.cfg.RedirectURL)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(t.cfg.Scopes, " "))
	params.Set("state", state)

	return t.cfg.AuthURL + "/authorize?" + params.Encode()
}

func (t *Twitch) ExchangeCode(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: empty authorization code", ErrBadRequest)
	}

	data := url.Values{}
	data.Set("client_id", t.cfg.ClientID)
	data.Set("client_secret", t.cfg.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", t.cfg.RedirectURL)

	tokens, err := t.requestToken(ctx, data)
	if err != nil {
		return err
	}

	t.log.Info("Twitch authorization completed")
	return t.storeTokens(tokens)
}

// RefreshToken swaps the refresh token for a new pair; a rejected refresh clears the session.
func (t *Twitch) RefreshToken(ctx context.Context) error {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	t.mu.RLock()
	var refresh string
	if t.tokens != nil {
		refresh = t.tokens.RefreshToken
	}
	t.mu.RUnlock()

	if refresh == "" {
		return ErrUserAuthNotCompleted
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refresh)
	data.Set("client_id", t.cfg.ClientID)
	data.Set("client_secret", t.cfg.ClientSecret)

	tokens, err := t.requestToken(ctx, data)
	if err != nil {
		if errors.Is(err, ErrUserAuthNotCompleted) {
			t.ClearTokens()
		}
		return err
	}

	t.log.Info("Twitch token refreshed")
	return t.storeTokens(tokens)
}

func (t *Twitch) requestToken(ctx context.Context, data url.Values) (*config.UserTokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.AuthURL+"/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized:
		t.log.Warn("Twitch token request rejected", slog.Int("status", resp.StatusCode), slog.String("message", gjson.GetBytes(raw, "message").String()))
		return nil, ErrUserAuthNotCompleted
	default:
		return nil, fmt.Errorf("token request failed: %s", string(raw))
	}

	body := gjson.ParseBytes(raw)
	tokens := &config.UserTokens{
		AccessToken:  body.Get("access_token").String(),
		RefreshToken: body.Get("refresh_token").String(),
		ExpiresIn:    int(body.Get("expires_in").Int()),
		ObtainedAt:   t.clock.Now(),
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("token request: %w", errEmptyResponse)
	}
	return tokens, nil
}

func (t *Twitch) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.tokens == nil {
		return ""
	}
	return t.tokens.AccessToken
}

func (t *Twitch) ClearTokens() {
	t.mu.Lock()
	t.tokens = nil
	t.mu.Unlock()

	t.users.ClearAll()
	if err := t.manager.Update(func(cfg *config.Config) { cfg.Tokens = nil }); err != nil {
		t.log.Error("Failed to persist cleared tokens", err)
	}
}

func (t *Twitch) storeTokens(tokens *config.UserTokens) error {
	t.mu.Lock()
	t.tokens = tokens
	t.mu.Unlock()

	saved := *tokens
	if err := t.manager.Update(func(cfg *config.Config) { cfg.Tokens = &saved }); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	return nil
}
