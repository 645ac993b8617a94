package chat

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"log/slog"
	"metacity/internal/app/adapters/metrics"
	"metacity/internal/app/adapters/platform/twitch/api"
	"metacity/internal/app/ports"
)

// LoginURL starts an authorization round; only the newest state is accepted back.
func (s *Session) LoginURL() (string, error) {
	state := uuid.NewString()
	if err := s.do(func() { s.oauthState = state }); err != nil {
		return "", err
	}
	return s.api.AuthURL(state), nil
}

// CompleteLogin exchanges the code on the caller's goroutine and applies the result on the session.
func (s *Session) CompleteLogin(ctx context.Context, code, state string) error {
	var expected string
	if err := s.do(func() {
		expected = s.oauthState
		s.oauthState = ""
	}); err != nil {
		return err
	}

	if expected == "" || state != expected {
		return ErrStateMismatch
	}

	if err := s.api.ExchangeCode(ctx, code); err != nil {
		s.log.Error("Failed to exchange authorization code", err)
		s.post(func() { s.authError(err) })
		return fmt.Errorf("exchange code: %w", err)
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.log.Error("Failed to fetch authenticated user", err)
		s.post(func() { s.authError(err) })
		return fmt.Errorf("current user: %w", err)
	}

	return s.do(func() { s.authenticate(user) })
}

// Restore picks up tokens persisted by a previous run.
func (s *Session) Restore(ctx context.Context) error {
	if s.api.AccessToken() == "" {
		return nil
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUserAuthNotCompleted) {
			s.log.Warn("Stored Twitch session expired, login required")
			return nil
		}
		return err
	}

	return s.do(func() { s.authenticate(user) })
}

func (s *Session) Logout() error {
	return s.do(func() { s.logout("") })
}

func (s *Session) authenticate(user *ports.TwitchUser) {
	s.user = user
	s.authRetried = false
	s.chat.SetCredentials(user.Login, s.api.AccessToken())
	s.refreshRewardGauge()

	s.log.Info("Twitch user authenticated", slog.String("login", user.Login))
	s.publish(ports.Event{
		Type:    ports.EventAuthenticated,
		Title:   "🎮 Twitch Connected!",
		Message: fmt.Sprintf("Welcome %s! Ready to stream MetaCity.", user.DisplayName),
		Data:    user,
	})
}

func (s *Session) authError(err error) {
	s.publish(ports.Event{
		Type:    ports.EventAuthError,
		Title:   "❌ Authentication Failed",
		Message: err.Error(),
	})
}

// onChatAuthFailed allows one token refresh per session before giving up.
func (s *Session) onChatAuthFailed(cause error) {
	if s.user == nil {
		return
	}
	if s.authRetried {
		s.log.Warn("Chat authentication failed after refresh, logging out")
		s.logout("Twitch session expired. Please log in again.")
		return
	}
	s.authRetried = true

	login := s.user.Login
	s.log.Warn("Chat authentication failed, refreshing token", slog.Any("cause", cause))
	s.offload(func(ctx context.Context) {
		err := s.api.RefreshToken(ctx)
		s.post(func() {
			if s.user == nil || s.user.Login != login {
				return
			}
			if err != nil {
				s.log.Error("Token refresh failed", err)
				s.logout("Twitch session expired. Please log in again.")
				return
			}
			s.chat.SetCredentials(login, s.api.AccessToken())
			s.chat.Connect()
		})
	})
}

// logout clears identity, chat and voting state. Rewards stay: they are provisional
// earnings that survive until claimed.
func (s *Session) logout(reason string) {
	wasAuthenticated := s.user != nil

	s.stopStream(false)
	s.lastRecap = nil
	s.chat.Logout()
	s.api.ClearTokens()

	s.user = nil
	s.oauthState = ""
	s.authRetried = false
	s.channel = ""
	s.engine.Reset()
	s.planner.Reset()
	s.messages.ClearAll()
	s.commands.ClearAll()
	metrics.ChatState.Set(float64(ports.LoggedOut))
	metrics.PendingRewards.Set(0)

	if reason != "" {
		s.publish(ports.Event{Type: ports.EventAuthError, Title: "❌ Authentication Failed", Message: reason})
	}
	if wasAuthenticated || reason != "" {
		s.log.Info("Logged out")
		s.publish(ports.Event{Type: ports.EventLoggedOut, Title: "👋 Logged Out", Message: "Twitch session closed."})
	}
}

// offload runs network work on the API worker pool, never on the session goroutine.
func (s *Session) offload(fn func(ctx context.Context)) {
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		fn(ctx)
	}

	if s.pool == nil {
		go task()
		return
	}
	if err := s.pool.Submit(task); err != nil {
		s.log.Warn("API task rejected, running detached", slog.Any("error", err))
		go task()
	}
}
