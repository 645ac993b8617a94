package handlers

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"metacity/internal/app/adapters/chat"
	"metacity/internal/app/domain/city"
	"metacity/internal/app/domain/voting"
	"metacity/internal/app/ports"
	"metacity/pkg/logger"
	"net/http"
	"time"
)

// Session is the part of the streaming session the dashboard drives.
type Session interface {
	LoginURL() (string, error)
	CompleteLogin(ctx context.Context, code, state string) error
	Logout() error
	JoinChat(channel string) error
	LeaveChat() error
	SendMessage(text string) error
	CreateProposal(in chat.ProposalInput) (voting.Proposal, error)
	EndProposal(id string) (voting.Result, error)
	ApproveRequest(id string) (city.Request, error)
	RejectRequest(id string) (city.Request, error)
	ClaimRewards() (chat.ClaimResult, error)
	StartStream() error
	StopStream() error
	Snapshot() (chat.Snapshot, error)
	Subscribe(fn ports.EventListener) (unsubscribe func())
}

type Handlers struct {
	log     logger.Logger
	session Session
	started time.Time
}

func New(log logger.Logger, session Session) *Handlers {
	return &Handlers{
		log:     log,
		session: session,
		started: time.Now(),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, chat.ErrStateMismatch),
		errors.Is(err, voting.ErrEmptyTitle),
		errors.Is(err, voting.ErrInvalidCategory),
		errors.Is(err, voting.ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, voting.ErrProposalNotFound),
		errors.Is(err, city.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotJoined),
		errors.Is(err, voting.ErrProposalClosed):
		return http.StatusConflict
	case errors.Is(err, chat.ErrMessageDropped):
		return http.StatusTooManyRequests
	case errors.Is(err, chat.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", err, "path", c.FullPath())
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}
