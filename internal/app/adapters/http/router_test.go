package http

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"metacity/internal/app/adapters/chat"
	"metacity/internal/app/domain/city"
	"metacity/internal/app/domain/voting"
	"metacity/internal/app/infrastructure/config"
	"metacity/internal/app/ports"
	"metacity/pkg/logger"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

type stubSession struct{}

func (stubSession) LoginURL() (string, error) { return "https://id.twitch.tv", nil }
func (stubSession) CompleteLogin(context.Context, string, string) error { return nil }
func (stubSession) Logout() error { return nil }
func (stubSession) JoinChat(string) error { return nil }
func (stubSession) LeaveChat() error { return nil }
func (stubSession) SendMessage(string) error { return nil }
func (stubSession) CreateProposal(chat.ProposalInput) (voting.Proposal, error) {
	return voting.Proposal{}, nil
}
func (stubSession) EndProposal(string) (voting.Result, error) { return voting.Result{}, nil }
func (stubSession) ApproveRequest(string) (city.Request, error) { return city.Request{}, nil }
func (stubSession) RejectRequest(string) (city.Request, error) { return city.Request{}, nil }
func (stubSession) ClaimRewards() (chat.ClaimResult, error) { return chat.ClaimResult{}, nil }
func (stubSession) StartStream() error { return nil }
func (stubSession) StopStream() error { return nil }
func (stubSession) Snapshot() (chat.Snapshot, error) { return chat.Snapshot{}, nil }
func (stubSession) Subscribe(ports.EventListener) func() { return func() {} }

func newTestRouter(t *testing.T, token string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.App.AuthToken = token
	}))

	return NewRouter(logger.NewNop(), manager, stubSession{}).Handler()
}

func TestAPIAuth(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	tests := []struct {
		name   string
		remote string
		header string
		target string
		want   int
	}{
		{name: "remote without token", remote: "203.0.113.7:4000", target: "/api/state", want: http.StatusUnauthorized},
		{name: "remote wrong token", remote: "203.0.113.7:4000", header: "Bearer nope", target: "/api/state", want: http.StatusUnauthorized},
		{name: "remote bearer", remote: "203.0.113.7:4000", header: "Bearer s3cret", target: "/api/state", want: http.StatusOK},
		{name: "remote query token", remote: "203.0.113.7:4000", target: "/api/state?token=s3cret", want: http.StatusOK},
		{name: "loopback", remote: "127.0.0.1:4000", target: "/api/state", want: http.StatusOK},
		{name: "loopback v6", remote: "[::1]:4000", target: "/api/state", want: http.StatusOK},
		{name: "health is public", remote: "203.0.113.7:4000", target: "/api/health", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.RemoteAddr = tt.remote
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMetricsBasicAuth(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("admin", "s3cret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "metacity_chat_state")
}

func TestMetricsDisabledWithoutToken(t *testing.T) {
	r := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("admin", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
