package voting

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyTitle       = errors.New("proposal title is required")
	ErrInvalidCategory  = errors.New("unknown proposal category")
	ErrInvalidDuration  = errors.New("proposal duration must be positive")
	ErrProposalNotFound = errors.New("no active proposal with this id")
	ErrProposalClosed   = errors.New("proposal already closed")
	ErrVotingEnded      = errors.New("voting period has ended")
	ErrInvalidChoice    = errors.New("vote must be yes or no")
	ErrAlreadyVoted     = errors.New("already voted on this proposal")
)

type Category string

const (
	CategoryBuilding Category = "building"
	CategoryPolicy   Category = "policy"
	CategoryUpgrade  Category = "upgrade"
	CategoryEvent    Category = "event"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryBuilding, CategoryPolicy, CategoryUpgrade, CategoryEvent:
		return c, nil
	case "":
		return CategoryPolicy, nil
	default:
		return "", ErrInvalidCategory
	}
}

type Choice string

const (
	Yes Choice = "yes"
	No  Choice = "no"
)

func ParseChoice(s string) (Choice, error) {
	switch c := Choice(strings.ToLower(s)); c {
	case Yes, No:
		return c, nil
	default:
		return "", ErrInvalidChoice
	}
}

type Outcome string

const (
	Passed Outcome = "PASSED"
	Failed Outcome = "FAILED"
)

type Proposal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"type"`
	Options     []string  `json:"options"`
	Active      bool      `json:"is_active"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedBy   string    `json:"created_by"`
}

// Expired is a display flag only; closing is always explicit.
func (p *Proposal) Expired(now time.Time) bool {
	return !now.Before(p.EndTime)
}

type Input struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"type"`
	Options     []string      `json:"options"`
	Duration    time.Duration `json:"duration"`
	CreatedBy   string        `json:"created_by"`
}

type Vote struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	VoterID    string    `json:"user_id"`
	Username   string    `json:"username"`
	Choice     Choice    `json:"vote"`
	Weight     int       `json:"weight"`
	Timestamp  time.Time `json:"timestamp"`
}

type Tally struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// Outcome never passes a tie.
func (t Tally) Outcome() Outcome {
	if t.Yes > t.No {
		return Passed
	}
	return Failed
}

type Result struct {
	Proposal Proposal `json:"proposal"`
	Tally    Tally    `json:"tally"`
	Outcome  Outcome  `json:"outcome"`
}

type View struct {
	Proposal
	Tally   Tally  `json:"tally"`
	Votes   []Vote `json:"votes"`
	Expired bool   `json:"expired"`
}
