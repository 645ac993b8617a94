package chat

import (
	"metacity/internal/app/domain/city"
	"metacity/internal/app/domain/message"
	"metacity/internal/app/domain/rewards"
	"metacity/internal/app/domain/stream"
	"metacity/internal/app/domain/voting"
	"metacity/internal/app/ports"
)

// Snapshot is the dashboard's read model.
type Snapshot struct {
	Authenticated    bool                   `json:"is_authenticated"`
	User             *ports.TwitchUser      `json:"user"`
	Channel          string                 `json:"channel"`
	ChatState        ports.ConnState        `json:"chat_state"`
	Connected        bool                   `json:"is_connected"`
	Streaming        bool                   `json:"is_streaming"`
	Stats            *ports.StreamStats     `json:"stream_stats"`
	ViewerCount      int                    `json:"viewer_count"`
	StreamRecap      *stream.Summary        `json:"stream_recap"`
	Messages         []*message.ChatMessage `json:"chat_messages"`
	Commands         []*message.ChatCommand `json:"recent_commands"`
	Proposals        []voting.View          `json:"proposals"`
	Votes            []voting.Vote          `json:"votes"`
	Requests         []city.Request         `json:"pending_requests"`
	TotalEarnings    int64                  `json:"total_earnings"`
	LifetimeEarnings int64                  `json:"lifetime_earnings"`
	RecentRewards    []rewards.Reward       `json:"recent_rewards"`
	Currency         string                 `json:"currency"`
}

func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.do(func() {
		state := s.chat.State()
		snap = Snapshot{
			Authenticated: s.user != nil,
			Channel:       s.channel,
			ChatState:     state,
			Connected:     state == ports.Connected,
			Streaming:     s.streaming,
			Messages:      s.messages.Get(s.channel),
			Commands:      s.commands.Get(s.channel),
			Proposals:     s.engine.Views(),
			Votes:         s.engine.Votes(),
			Requests:      s.planner.Pending(),
			Currency:      s.cfg.Rewards.Currency,
		}
		if s.user != nil {
			user := *s.user
			snap.User = &user
			snap.TotalEarnings = s.ledger.Total(user.Login)
			snap.LifetimeEarnings = s.ledger.Lifetime(user.Login)
			snap.RecentRewards = s.ledger.Recent(user.Login)
		}
		if s.streaming {
			recap := s.recap.Summary(s.clock.Now(), recapTopChatters)
			snap.StreamRecap = &recap
		} else {
			snap.StreamRecap = s.lastRecap
		}
		if s.stats != nil {
			stats := *s.stats
			snap.Stats = &stats
			snap.ViewerCount = stats.ViewerCount
		}
	})
	return snap, err
}
