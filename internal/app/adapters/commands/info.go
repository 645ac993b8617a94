package commands

import (
	"fmt"
	"metacity/internal/app/domain/city"
	"metacity/internal/app/domain/message"
	"metacity/internal/app/domain/rewards"
	"metacity/internal/app/domain/voting"
	"metacity/internal/app/ports"
)

const HelpText = "Commands: !vote <id> <yes/no> | !build <type> | !city | !help | Subs can use !build, !upgrade"

var useDashboard = &ports.AnswerType{
	Text:    []string{"Use the streamer dashboard to create proposals!"},
	IsReply: true,
}

type Help struct{}

func (h *Help) Execute(_ *message.ChatCommand) *ports.AnswerType {
	return &ports.AnswerType{Text: []string{HelpText}}
}

// Proposal answers broadcasters and moderators only; everyone else is ignored.
type Proposal struct{}

func (p *Proposal) Execute(cmd *message.ChatCommand) *ports.AnswerType {
	if !cmd.User.CanModerate() {
		return nil
	}
	return useDashboard
}

type City struct {
	planner  *city.Planner
	engine   *voting.Engine
	ledger   *rewards.Ledger
	streamer func() string
}

func (c *City) Execute(_ *message.ChatCommand) *ports.AnswerType {
	var earned int64
	if c.streamer != nil {
		earned = c.ledger.Lifetime(c.streamer())
	}

	return &ports.AnswerType{
		Text: []string{fmt.Sprintf("🏙️ MetaCity Stats: %d buildings, %d proposals passed, %d MTC earned!",
			c.planner.Buildings(), c.engine.PassedCount(), earned)},
	}
}
