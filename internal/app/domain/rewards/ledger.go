package rewards

import (
	"errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"time"
)

var ErrInvalidAmount = errors.New("reward amount must be positive")

type Category string

const (
	BuildingMint     Category = "building_mint"
	ProposalPassed   Category = "proposal_reward"
	ViewerEngagement Category = "viewer_engagement"
)

type Reward struct {
	ID        string    `json:"id"`
	Recipient string    `json:"streamer_username"`
	Amount    int64     `json:"amount"`
	Category  Category  `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TxRef     string    `json:"tx_hash,omitempty"`
}

// Claim is provisional until the on-chain claim transaction confirms.
type Claim struct {
	Recipient string   `json:"recipient"`
	Total     int64    `json:"total"`
	Rewards   []Reward `json:"rewards"`
}

type account struct {
	total    int64
	lifetime int64
	recent   []Reward
}

// Ledger is not safe for concurrent use.
type Ledger struct {
	clock    clockwork.Clock
	accounts map[string]*account
}

func New(clock clockwork.Clock) *Ledger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Ledger{
		clock:    clock,
		accounts: make(map[string]*account),
	}
}

func (l *Ledger) account(recipient string) *account {
	a, ok := l.accounts[recipient]
	if !ok {
		a = &account{}
		l.accounts[recipient] = a
	}
	return a
}

func (l *Ledger) Credit(recipient string, amount int64, category Category, txRef string) (Reward, error) {
	if amount <= 0 {
		return Reward{}, ErrInvalidAmount
	}

	r := Reward{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Amount:    amount,
		Category:  category,
		Timestamp: l.clock.Now(),
		TxRef:     txRef,
	}

	a := l.account(recipient)
	a.recent = append(a.recent, r)
	a.total += amount
	a.lifetime += amount

	return r, nil
}

// Claim returns false when there is nothing to claim. Otherwise the running
// total and the itemized list are reset together.
func (l *Ledger) Claim(recipient string) (Claim, bool) {
	a, ok := l.accounts[recipient]
	if !ok || a.total == 0 {
		return Claim{}, false
	}

	c := Claim{
		Recipient: recipient,
		Total:     a.total,
		Rewards:   a.recent,
	}
	a.total = 0
	a.recent = nil

	return c, true
}

func (l *Ledger) Total(recipient string) int64 {
	if a, ok := l.accounts[recipient]; ok {
		return a.total
	}
	return 0
}

// Lifetime survives claims; it feeds the public city stats.
func (l *Ledger) Lifetime(recipient string) int64 {
	if a, ok := l.accounts[recipient]; ok {
		return a.lifetime
	}
	return 0
}

func (l *Ledger) Recent(recipient string) []Reward {
	if a, ok := l.accounts[recipient]; ok {
		return append([]Reward(nil), a.recent...)
	}
	return nil
}
