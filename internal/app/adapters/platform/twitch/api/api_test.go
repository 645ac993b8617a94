package api

import (
	"context"
	"fmt"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"metacity/internal/app/infrastructure/config"
	"metacity/pkg/logger"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTwitch struct {
	mu        sync.Mutex
	valid     string
	refreshes atomic.Int32
	userHits  atomic.Int32
	// refreshTo is handed out on refresh; empty rejects the refresh.
	refreshTo string
	throttle  atomic.Int32
	streams   string
}

func (f *fakeTwitch) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"status":400,"message":"Invalid authorization code"}`)
				return
			}
			fmt.Fprint(w, `{"access_token":"access-1","refresh_token":"refresh-1","expires_in":14400}`)
		case "refresh_token":
			f.refreshes.Add(1)
			f.mu.Lock()
			next := f.refreshTo
			f.mu.Unlock()
			if next == "" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"status":400,"message":"Invalid refresh token"}`)
				return
			}
			fmt.Fprintf(w, `{"access_token":%q,"refresh_token":"refresh-2","expires_in":14400}`, next)
		}
	})

	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		f.mu.Lock()
		valid := f.valid
		f.mu.Unlock()

		assert.Equal(t, "cid", r.Header.Get("Client-Id"))
		if r.Header.Get("Authorization") != "Bearer "+valid {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`)
			return false
		}
		return true
	}

	mux.HandleFunc("/helix/users", func(w http.ResponseWriter, r *http.Request) {
		if f.throttle.Load() > 0 {
			f.throttle.Add(-1)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if !authorized(w, r) {
			return
		}
		f.userHits.Add(1)

		login := r.URL.Query().Get("login")
		if login == "" {
			login = "metacity"
		}
		if login == "ghost" {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprintf(w, `{"data":[{"id":"1001","login":%q,"display_name":"MetaCity","created_at":"2020-01-02T03:04:05Z"}]}`, login)
	})

	mux.HandleFunc("/helix/streams", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		assert.Equal(t, "1001", r.URL.Query().Get("user_id"))
		fmt.Fprint(w, f.streams)
	})

	return mux
}

func newTestTwitch(t *testing.T, f *fakeTwitch, clock clockwork.Clock, tokens *config.UserTokens) (*Twitch, *config.Manager) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.Twitch.ClientID = "cid"
		cfg.Twitch.ClientSecret = "secret"
		cfg.Twitch.AuthURL = srv.URL + "/oauth2"
		cfg.Twitch.HelixURL = srv.URL + "/helix"
		cfg.Tokens = tokens
	}))

	tw := NewTwitch(logger.NewNop(), manager, srv.Client(), clock, 1)
	t.Cleanup(tw.Pool().Stop)
	return tw, manager
}

func TestAuthURL(t *testing.T) {
	tw, _ := newTestTwitch(t, &fakeTwitch{}, clockwork.NewRealClock(), nil)

	raw := tw.AuthURL("xyz")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "http://localhost:8080/auth/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "chat:read chat:edit")
}

func TestExchangeCode(t *testing.T) {
	tw, manager := newTestTwitch(t, &fakeTwitch{}, clockwork.NewRealClock(), nil)

	require.NoError(t, tw.ExchangeCode(context.Background(), "good-code"))
	assert.Equal(t, "access-1", tw.AccessToken())

	saved := manager.Get().Tokens
	require.NotNil(t, saved)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
	assert.Equal(t, 14400, saved.ExpiresIn)

	err := tw.ExchangeCode(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrUserAuthNotCompleted)

	assert.ErrorIs(t, tw.ExchangeCode(context.Background(), ""), ErrBadRequest)
}

func TestRequest_RefreshesOnceOn401(t *testing.T) {
	f := &fakeTwitch{valid: "fresh", refreshTo: "fresh"}
	tw, manager := newTestTwitch(t, f, clockwork.NewRealClock(), &config.UserTokens{AccessToken: "stale", RefreshToken: "r"})

	user, err := tw.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1001", user.ID)
	assert.Equal(t, "MetaCity", user.DisplayName)
	assert.Equal(t, 2020, user.CreatedAt.Year())

	assert.EqualValues(t, 1, f.refreshes.Load())
	assert.Equal(t, "fresh", tw.AccessToken())
	assert.Equal(t, "fresh", manager.Get().Tokens.AccessToken)
}

func TestRequest_FailedRefreshEndsSession(t *testing.T) {
	f := &fakeTwitch{valid: "fresh"}
	tw, manager := newTestTwitch(t, f, clockwork.NewRealClock(), &config.UserTokens{AccessToken: "stale", RefreshToken: "r"})

	_, err := tw.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrUserAuthNotCompleted)
	assert.EqualValues(t, 1, f.refreshes.Load())
	assert.Empty(t, tw.AccessToken())
	assert.Nil(t, manager.Get().Tokens)
}

func TestRequest_SecondUnauthorizedDoesNotRefreshAgain(t *testing.T) {
	f := &fakeTwitch{valid: "never", refreshTo: "still-wrong"}
	tw, _ := newTestTwitch(t, f, clockwork.NewRealClock(), &config.UserTokens{AccessToken: "stale", RefreshToken: "r"})

	_, err := tw.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrUserAuthNotCompleted)
	assert.EqualValues(t, 1, f.refreshes.Load())
	assert.Empty(t, tw.AccessToken())
}

func TestRequest_WithoutTokens(t *testing.T) {
	f := &fakeTwitch{}
	tw, _ := newTestTwitch(t, f, clockwork.NewRealClock(), nil)

	_, err := tw.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrUserAuthNotCompleted)
	assert.EqualValues(t, 0, f.userHits.Load())
}

func TestRequest_BacksOffOnRateLimit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := &fakeTwitch{valid: "ok"}
	f.throttle.Store(1)
	clock := clockwork.NewFakeClock()
	tw, _ := newTestTwitch(t, f, clock, &config.UserTokens{AccessToken: "ok"})

	done := make(chan error, 1)
	go func() {
		_, err := tw.CurrentUser(ctx)
		done <- err
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(baseBackoff)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("request did not resume after backoff")
	}
}

func TestStreamInfo(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		f := &fakeTwitch{valid: "ok", streams: `{"data":[{"type":"live","viewer_count":42,"title":"Building MetaCity","game_name":"Software and Game Development","started_at":"2026-10-16T12:00:00Z","thumbnail_url":"https://static/live_user_metacity-{width}x{height}.jpg"}]}`}
		tw, _ := newTestTwitch(t, f, clockwork.NewRealClock(), &config.UserTokens{AccessToken: "ok"})

		stats, err := tw.StreamInfo(context.Background(), "#MetaCity")
		require.NoError(t, err)
		assert.True(t, stats.IsLive)
		assert.Equal(t, 42, stats.ViewerCount)
		assert.Equal(t, "Building MetaCity", stats.Title)
		assert.Equal(t, "https://static/live_user_metacity-440x248.jpg", stats.ThumbnailURL)
		require.NotNil(t, stats.StartedAt)
		assert.Equal(t, 12, stats.StartedAt.Hour())

		_, err = tw.StreamInfo(context.Background(), "metacity")
		require.NoError(t, err)
		assert.EqualValues(t, 1, f.userHits.Load())
	})

	t.Run("offline", func(t *testing.T) {
		f := &fakeTwitch{valid: "ok", streams: `{"data":[]}`}
		tw, _ := newTestTwitch(t, f, clockwork.NewRealClock(), &config.UserTokens{AccessToken: "ok"})

		stats, err := tw.StreamInfo(context.Background(), "metacity")
		require.NoError(t, err)
		assert.False(t, stats.IsLive)
		assert.Zero(t, stats.ViewerCount)
		assert.Nil(t, stats.StartedAt)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := &fakeTwitch{valid: "ok"}
		tw, _ := newTestTwitch(t, f, clockwork.NewRealClock(), &config.UserTokens{AccessToken: "ok"})

		_, err := tw.StreamInfo(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCalcWaitDuration(t *testing.T) {
	now := time.Unix(1000, 0)

	assert.Equal(t, time.Duration(0), calcWaitDuration("", now))
	assert.Equal(t, time.Duration(0), calcWaitDuration("nope", now))
	assert.Equal(t, time.Duration(0), calcWaitDuration("900", now))
	assert.Equal(t, 5*time.Second, calcWaitDuration("1005", now))
}

func TestPool(t *testing.T) {
	tw, _ := newTestTwitch(t, &fakeTwitch{}, clockwork.NewRealClock(), nil)

	done := make(chan struct{})
	require.NoError(t, tw.Pool().Submit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task not executed")
	}

	tw.Pool().Stop()
	assert.Error(t, tw.Pool().Submit(func() {}))
}
