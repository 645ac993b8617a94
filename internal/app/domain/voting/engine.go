package voting

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"strings"
	"time"
)

// Engine is not safe for concurrent use; its owner serializes access.
type Engine struct {
	clock           clockwork.Clock
	newID           func() string
	defaultDuration time.Duration

	proposals []*Proposal
	byID      map[string]*Proposal
	votes     []Vote
	voted     map[voteKey]struct{}
}

type voteKey struct {
	proposalID string
	voterID    string
}

type Option func(*Engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func New(defaultDuration time.Duration, opts ...Option) *Engine {
	e := &Engine{
		clock:           clockwork.NewRealClock(),
		newID:           shortID,
		defaultDuration: defaultDuration,
		byID:            make(map[string]*Proposal),
		voted:           make(map[voteKey]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (e *Engine) CreateProposal(in Input) (Proposal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Proposal{}, ErrEmptyTitle
	}

	category, err := ParseCategory(in.Category)
	if err != nil {
		return Proposal{}, err
	}

	duration := in.Duration
	if duration == 0 {
		duration = e.defaultDuration
	}
	if duration < 0 {
		return Proposal{}, ErrInvalidDuration
	}

	options := in.Options
	if len(options) == 0 {
		options = []string{string(Yes), string(No)}
	}

	id := e.newID()
	for {
		if _, taken := e.byID[id]; !taken {
			break
		}
		id = shortID()
	}

	now := e.clock.Now()
	p := &Proposal{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Options:     append([]string(nil), options...),
		Active:      true,
		StartTime:   now,
		EndTime:     now.Add(duration),
		CreatedBy:   in.CreatedBy,
	}

	e.proposals = append(e.proposals, p)
	e.byID[id] = p

	return *p, nil
}

// RecordVote appends to the ledger; an existing vote is never overwritten.
func (e *Engine) RecordVote(proposalID string, voter Voter, rawChoice string) (Vote, error) {
	p, ok := e.byID[proposalID]
	if !ok || !p.Active {
		return Vote{}, ErrProposalNotFound
	}

	now := e.clock.Now()
	if p.Expired(now) {
		return Vote{}, ErrVotingEnded
	}

	choice, err := ParseChoice(rawChoice)
	if err != nil {
		return Vote{}, err
	}

	key := voteKey{proposalID: proposalID, voterID: voter.ID}
	if _, dup := e.voted[key]; dup {
		return Vote{}, ErrAlreadyVoted
	}

	v := Vote{
		ID:         shortID(),
		ProposalID: proposalID,
		VoterID:    voter.ID,
		Username:   voter.Username,
		Choice:     choice,
		Weight:     voter.Weight,
		Timestamp:  now,
	}
	e.votes = append(e.votes, v)
	e.voted[key] = struct{}{}

	return v, nil
}

func (e *Engine) CloseProposal(proposalID string) (Result, error) {
	p, ok := e.byID[proposalID]
	if !ok {
		return Result{}, ErrProposalNotFound
	}
	if !p.Active {
		return Result{}, ErrProposalClosed
	}

	p.Active = false
	tally := e.tally(proposalID)

	return Result{
		Proposal: *p,
		Tally:    tally,
		Outcome:  tally.Outcome(),
	}, nil
}

func (e *Engine) Tally(proposalID string) (Tally, error) {
	if _, ok := e.byID[proposalID]; !ok {
		return Tally{}, ErrProposalNotFound
	}
	return e.tally(proposalID), nil
}

func (e *Engine) tally(proposalID string) Tally {
	var t Tally
	for _, v := range e.votes {
		if v.ProposalID != proposalID {
			continue
		}
		switch v.Choice {
		case Yes:
			t.Yes += v.Weight
		case No:
			t.No += v.Weight
		}
	}
	return t
}

func (e *Engine) Get(proposalID string) (Proposal, bool) {
	p, ok := e.byID[proposalID]
	if !ok {
		return Proposal{}, false
	}
	return *p, true
}

// Views lists every proposal in creation order with tallies and votes embedded.
func (e *Engine) Views() []View {
	now := e.clock.Now()
	byProposal := make(map[string][]Vote, len(e.proposals))
	for _, v := range e.votes {
		byProposal[v.ProposalID] = append(byProposal[v.ProposalID], v)
	}

	views := make([]View, 0, len(e.proposals))
	for _, p := range e.proposals {
		views = append(views, View{
			Proposal: *p,
			Tally:    e.tally(p.ID),
			Votes:    byProposal[p.ID],
			Expired:  p.Expired(now),
		})
	}
	return views
}

func (e *Engine) Votes() []Vote {
	return append([]Vote(nil), e.votes...)
}

func (e *Engine) PassedCount() int {
	n := 0
	for _, p := range e.proposals {
		if !p.Active && e.tally(p.ID).Outcome() == Passed {
			n++
		}
	}
	return n
}

func (e *Engine) Reset() {
	e.proposals = nil
	e.byID = make(map[string]*Proposal)
	e.votes = nil
	e.voted = make(map[voteKey]struct{})
}
