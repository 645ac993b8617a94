package city

import (
	"errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"strings"
	"time"
)

var (
	ErrEmptyTarget     = errors.New("building type is required")
	ErrRequestNotFound = errors.New("no pending request with this id")
)

type Action string

const (
	Build    Action = "build"
	Upgrade  Action = "upgrade"
	Demolish Action = "demolish"
)

type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Rejected Status = "rejected"
)

// Request is a chat viewer's suggestion waiting for the streamer's decision.
type Request struct {
	ID          string    `json:"id"`
	Action      Action    `json:"action"`
	Target      string    `json:"target,omitempty"`
	RequestedBy string    `json:"requested_by"`
	DisplayName string    `json:"display_name"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	DecidedAt   time.Time `json:"decided_at,omitzero"`
}

// Planner is not safe for concurrent use.
type Planner struct {
	clock    clockwork.Clock
	requests []*Request
	byID     map[string]*Request
}

func NewPlanner(clock clockwork.Clock) *Planner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Planner{
		clock: clock,
		byID:  make(map[string]*Request),
	}
}

func (p *Planner) Request(action Action, target, username, displayName string) (Request, error) {
	target = strings.TrimSpace(target)
	if action == Build && target == "" {
		return Request{}, ErrEmptyTarget
	}

	r := &Request{
		ID:          strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Action:      action,
		Target:      target,
		RequestedBy: username,
		DisplayName: displayName,
		Status:      Pending,
		CreatedAt:   p.clock.Now(),
	}
	p.requests = append(p.requests, r)
	p.byID[r.ID] = r

	return *r, nil
}

func (p *Planner) Approve(id string) (Request, error) {
	return p.decide(id, Approved)
}

func (p *Planner) Reject(id string) (Request, error) {
	return p.decide(id, Rejected)
}

func (p *Planner) decide(id string, status Status) (Request, error) {
	r, ok := p.byID[id]
	if !ok || r.Status != Pending {
		return Request{}, ErrRequestNotFound
	}

	r.Status = status
	r.DecidedAt = p.clock.Now()
	return *r, nil
}

func (p *Planner) Pending() []Request {
	out := make([]Request, 0)
	for _, r := range p.requests {
		if r.Status == Pending {
			out = append(out, *r)
		}
	}
	return out
}

// Buildings counts approved builds minus approved demolitions.
func (p *Planner) Buildings() int {
	n := 0
	for _, r := range p.requests {
		if r.Status != Approved {
			continue
		}
		switch r.Action {
		case Build:
			n++
		case Demolish:
			n--
		}
	}
	return max(n, 0)
}

func (p *Planner) Reset() {
	p.requests = nil
	p.byID = make(map[string]*Request)
}
