package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/jonboulle/clockwork"
	"github.com/tidwall/gjson"
	"io"
	"log/slog"
	"metacity/internal/app/infrastructure/config"
	"metacity/internal/app/infrastructure/storage"
	"metacity/pkg/logger"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type Twitch struct {
	log     logger.Logger
	manager *config.Manager
	cfg     config.Twitch
	client  *http.Client
	clock   clockwork.Clock
	pool    *TwitchPool

	// login -> user id
	users *storage.Cache[string]

	mu        sync.RWMutex
	tokens    *config.UserTokens
	refreshMu sync.Mutex
}

type TwitchPool struct {
	wg       sync.WaitGroup
	tasks    chan func()
	shutdown chan struct{}
	stop     sync.Once
}

func NewTwitch(log logger.Logger, manager *config.Manager, client *http.Client, clock clockwork.Clock, workerCount int) *Twitch {
	cfg := manager.Get()

	t := &Twitch{
		log:     log,
		manager: manager,
		cfg:     cfg.Twitch,
		client:  client,
		clock:   clock,
		users:   storage.NewCache[string](1024, time.Hour),
		tokens:  cfg.Tokens,
		pool: &TwitchPool{
			tasks:    make(chan func(), 300),
			shutdown: make(chan struct{}),
		},
	}

	for range workerCount {
		t.pool.wg.Add(1)
		go t.pool.worker()
	}

	return t
}

const (
	maxRetries  = 5
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

type twitchRequest struct {
	Method string
	URL    string
	Body   []byte
}

// doTwitchRequest sends an authenticated helix request. A 401 triggers exactly one
// token refresh and a retry; a second 401 or a failed refresh ends the session.
func (t *Twitch) doTwitchRequest(ctx context.Context, reqData twitchRequest) ([]byte, error) {
	t.log.Trace("Preparing Twitch request",
		slog.String("method", reqData.Method),
		slog.String("url", reqData.URL),
	)

	refreshed := false
	for attempt := 1; attempt <= maxRetries; attempt++ {
		token := t.AccessToken()
		if token == "" {
			return nil, ErrUserAuthNotCompleted
		}

		var body io.Reader
		if reqData.Body != nil {
			body = bytes.NewReader(reqData.Body)
		}

		req, err := http.NewRequestWithContext(ctx, reqData.Method, reqData.URL, body)
		if err != nil {
			t.log.Error("Failed to create HTTP request", err, slog.String("method", reqData.Method), slog.String("url", reqData.URL))
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Client-Id", t.cfg.ClientID)
		req.Header.Set("Content-Type", "application/json")

		t.log.Debug("Sending Twitch request", slog.Int("attempt", attempt), slog.String("method", reqData.Method), slog.String("url", reqData.URL))

		resp, err := t.client.Do(req)
		if err != nil {
			t.log.Error("HTTP request failed", err, slog.Int("attempt", attempt), slog.String("url", reqData.URL))
			return nil, err
		}

		raw, err := io.ReadAll(resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			t.log.Error("Failed to close response body", cerr)
		}
		if err != nil {
			t.log.Error("Failed to read response body", err, slog.Int("status", resp.StatusCode), slog.String("url", reqData.URL))
			return nil, err
		}

		t.log.Trace("Response received", slog.Int("status", resp.StatusCode), slog.String("body", string(raw)))
		switch resp.StatusCode {
		case http.StatusOK, http.StatusNoContent:
			return raw, nil

		case http.StatusUnauthorized:
			if refreshed {
				t.log.Warn("Twitch rejected refreshed token, clearing session")
				t.ClearTokens()
				return nil, ErrUserAuthNotCompleted
			}
			refreshed = true

			if err := t.RefreshToken(ctx); err != nil {
				t.log.Error("Token refresh after 401 failed", err)
				return nil, ErrUserAuthNotCompleted
			}
			continue

		case http.StatusTooManyRequests:
			wait := calcWaitDuration(resp.Header.Get("Ratelimit-Reset"), t.clock.Now())

			if wait <= 0 {
				wait = time.Duration(attempt) * baseBackoff
			}
			if wait > maxBackoff {
				wait = maxBackoff
			}

			t.log.Warn("Rate limit hit, backing off", slog.Int("attempt", attempt), slog.String("wait", wait.String()))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.clock.After(wait):
			}
			continue

		default:
			apiErr := &TwitchAPIError{Status: resp.StatusCode, Message: gjson.GetBytes(raw, "message").String()}
			if apiErr.Message == "" {
				apiErr.Message = string(raw)
			}
			t.log.Error("Twitch API returned an error", apiErr, slog.String("url", reqData.URL))

			switch resp.StatusCode {
			case http.StatusBadRequest:
				return nil, fmt.Errorf("%w: %w", ErrBadRequest, apiErr)
			case http.StatusNotFound:
				return nil, fmt.Errorf("%w: %w", ErrNotFound, apiErr)
			}
			return nil, apiErr
		}
	}

	t.log.Error("Twitch request failed after max retries", nil,
		slog.Int("maxRetries", maxRetries),
		slog.String("url", reqData.URL),
	)
	return nil, fmt.Errorf("%w: gave up after %d attempts", ErrRateLimited, maxRetries)
}

func calcWaitDuration(resetHeader string, now time.Time) time.Duration {
	if resetHeader == "" {
		return 0
	}

	ts, err := strconv.ParseInt(resetHeader, 10, 64)
	if err != nil {
		return 0
	}

	resetTime := time.Unix(ts, 0)
	if resetTime.Before(now) {
		return 0
	}
	return resetTime.Sub(now)
}

var errEmptyResponse = errors.New("empty response")
