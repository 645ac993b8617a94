package chat

import (
	"fmt"
	"log/slog"
	"metacity/internal/app/adapters/metrics"
	"metacity/internal/app/domain/city"
	"metacity/internal/app/domain/rewards"
	"metacity/internal/app/domain/voting"
	"metacity/internal/app/ports"
	"strings"
	"time"
)

func (s *Session) JoinChat(channel string) error {
	channel = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(channel), "#"))

	var err error
	doErr := s.do(func() {
		if s.user == nil {
			err = ErrNotAuthenticated
			return
		}
		if channel == "" {
			channel = s.user.Login
		}
		if s.channel != "" && s.channel != channel {
			s.chat.LeaveChannel(s.channel)
		}

		s.channel = channel
		s.chat.Connect()
		s.chat.JoinChannel(channel)
		s.log.Info("Joining chat", slog.String("channel", channel))
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// LeaveChat parts the channel and stops any pending reconnect.
func (s *Session) LeaveChat() error {
	return s.do(func() {
		if s.channel == "" {
			return
		}

		s.chat.LeaveChannel(s.channel)
		s.chat.Disconnect()
		s.log.Info("Left chat", slog.String("channel", s.channel))
		s.channel = ""
		metrics.ChatState.Set(float64(s.chat.State()))

		s.publish(ports.Event{
			Type:    ports.EventChatDisconnected,
			Title:   "👋 Chat Closed",
			Message: "Left the Twitch chat.",
		})
	})
}

func (s *Session) SendMessage(text string) error {
	var err error
	doErr := s.do(func() { err = s.say(text) })
	if doErr != nil {
		return doErr
	}
	return err
}

func (s *Session) say(text string) error {
	if s.channel == "" {
		return ErrNotJoined
	}
	if !s.chat.Send(s.channel, text) {
		return ErrMessageDropped
	}
	return nil
}

func (s *Session) sayOrLog(text string) {
	if err := s.say(text); err != nil {
		s.log.Debug("Chat announcement not sent", slog.String("text", text), slog.Any("error", err))
	}
}

type ProposalInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"type"`
	Options     []string      `json:"options"`
	Duration    time.Duration `json:"-"`
}

func (s *Session) CreateProposal(in ProposalInput) (voting.Proposal, error) {
	var (
		p   voting.Proposal
		err error
	)
	doErr := s.do(func() {
		if s.user == nil {
			err = ErrNotAuthenticated
			return
		}

		p, err = s.engine.CreateProposal(voting.Input{
			Title:       in.Title,
			Description: in.Description,
			Category:    in.Category,
			Options:     in.Options,
			Duration:    in.Duration,
			CreatedBy:   s.user.Login,
		})
		if err != nil {
			return
		}

		s.publish(ports.Event{
			Type:    ports.EventProposalCreated,
			Title:   "📋 New Proposal Created",
			Message: fmt.Sprintf("\"%s\" - Viewers can vote with !vote %s yes/no", p.Title, p.ID),
			Data:    p,
		})
		s.sayOrLog(fmt.Sprintf("🗳️ NEW PROPOSAL: %s | Vote: !vote %s yes/no | Ends in %s!",
			p.Title, p.ID, formatDuration(p.EndTime.Sub(p.StartTime))))
	})
	if doErr != nil {
		return voting.Proposal{}, doErr
	}
	return p, err
}

// EndProposal closes voting, announces the tally, and pays the creator when it passed.
func (s *Session) EndProposal(id string) (voting.Result, error) {
	var (
		res voting.Result
		err error
	)
	doErr := s.do(func() {
		res, err = s.engine.CloseProposal(id)
		if err != nil {
			return
		}

		metrics.ProposalOutcomes.WithLabelValues(string(res.Outcome)).Inc()
		s.publish(ports.Event{
			Type:    ports.EventProposalClosed,
			Title:   fmt.Sprintf("📊 Proposal %s", res.Outcome),
			Message: fmt.Sprintf("\"%s\" - Yes: %d, No: %d", res.Proposal.Title, res.Tally.Yes, res.Tally.No),
			Data:    res,
		})
		s.sayOrLog(fmt.Sprintf("📊 PROPOSAL RESULTS: \"%s\" %s! Yes: %d | No: %d",
			res.Proposal.Title, res.Outcome, res.Tally.Yes, res.Tally.No))

		if res.Outcome != voting.Passed {
			return
		}

		recipient := res.Proposal.CreatedBy
		if recipient == "" {
			recipient = s.login()
		}
		s.credit(recipient, s.cfg.Rewards.ProposalPassed, rewards.ProposalPassed, res.Proposal.ID,
			fmt.Sprintf("Earned %d %s from a passed proposal!", s.cfg.Rewards.ProposalPassed, s.cfg.Rewards.Currency))
	})
	if doErr != nil {
		return voting.Result{}, doErr
	}
	return res, err
}

// ApproveRequest accepts a viewer's city request; approved builds mint the streamer reward.
func (s *Session) ApproveRequest(id string) (city.Request, error) {
	var (
		req city.Request
		err error
	)
	doErr := s.do(func() {
		if s.user == nil {
			err = ErrNotAuthenticated
			return
		}

		req, err = s.planner.Approve(id)
		if err != nil {
			return
		}
		s.publish(ports.Event{
			Type:    ports.EventRequestDecided,
			Title:   "✅ Request Approved",
			Message: fmt.Sprintf("%s: %s %s", req.DisplayName, req.Action, req.Target),
			Data:    req,
		})

		if req.Action != city.Build {
			return
		}

		amount := s.cfg.Rewards.BuildingMint
		s.credit(s.user.Login, amount, rewards.BuildingMint, req.ID,
			fmt.Sprintf("Earned %d %s from %s's building!", amount, s.cfg.Rewards.Currency, req.RequestedBy))
		s.sayOrLog(fmt.Sprintf("Building approved! %s built a %s. Streamer earned %d %s! 🎉",
			req.RequestedBy, req.Target, amount, s.cfg.Rewards.Currency))
	})
	if doErr != nil {
		return city.Request{}, doErr
	}
	return req, err
}

func (s *Session) RejectRequest(id string) (city.Request, error) {
	var (
		req city.Request
		err error
	)
	doErr := s.do(func() {
		req, err = s.planner.Reject(id)
		if err != nil {
			return
		}
		s.publish(ports.Event{
			Type:    ports.EventRequestDecided,
			Title:   "🚫 Request Rejected",
			Message: fmt.Sprintf("%s: %s %s", req.DisplayName, req.Action, req.Target),
			Data:    req,
		})
	})
	if doErr != nil {
		return city.Request{}, doErr
	}
	return req, err
}

type ClaimResult struct {
	Claimed bool          `json:"claimed"`
	Claim   rewards.Claim `json:"claim"`
}

// ClaimRewards resets the local total; the on-chain transfer is settled elsewhere.
func (s *Session) ClaimRewards() (ClaimResult, error) {
	var (
		res ClaimResult
		err error
	)
	doErr := s.do(func() {
		if s.user == nil {
			err = ErrNotAuthenticated
			return
		}

		claim, ok := s.ledger.Claim(s.user.Login)
		res = ClaimResult{Claimed: ok, Claim: claim}
		s.refreshRewardGauge()

		if !ok {
			s.publish(ports.Event{
				Type:    ports.EventNoRewards,
				Title:   "ℹ️ No Rewards",
				Message: "No rewards to claim yet. Keep streaming!",
			})
			return
		}

		s.log.Info("Rewards claimed", slog.String("login", claim.Recipient), slog.Int64("total", claim.Total))
		s.publish(ports.Event{
			Type:    ports.EventRewardsClaimed,
			Title:   "💰 Rewards Claimed!",
			Message: fmt.Sprintf("Successfully claimed %d %s from streaming rewards!", claim.Total, s.cfg.Rewards.Currency),
			Data:    claim,
		})
	})
	if doErr != nil {
		return ClaimResult{}, doErr
	}
	return res, err
}

func (s *Session) credit(recipient string, amount int64, category rewards.Category, txRef, note string) {
	if amount <= 0 || recipient == "" {
		return
	}

	reward, err := s.ledger.Credit(recipient, amount, category, txRef)
	if err != nil {
		s.log.Error("Failed to credit reward", err, slog.String("recipient", recipient))
		return
	}
	s.refreshRewardGauge()

	s.publish(ports.Event{
		Type:    ports.EventRewardCredited,
		Title:   "💰 Streamer Reward",
		Message: note,
		Data:    reward,
	})
}

func (s *Session) refreshRewardGauge() {
	metrics.PendingRewards.Set(float64(s.ledger.Total(s.login())))
}

func formatDuration(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return fmt.Sprintf("%d seconds", int(d.Round(time.Second)/time.Second))
	}
}
