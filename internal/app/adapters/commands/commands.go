package commands

import (
	"log/slog"
	"metacity/internal/app/adapters/metrics"
	"metacity/internal/app/domain/city"
	"metacity/internal/app/domain/message"
	"metacity/internal/app/domain/rewards"
	"metacity/internal/app/domain/voting"
	"metacity/internal/app/ports"
	"metacity/pkg/logger"
	"time"
)

type Command interface {
	Execute(cmd *message.ChatCommand) *ports.AnswerType
}

var notPrivileged = &ports.AnswerType{
	Text:    []string{"Only subscribers can use city commands!"},
	IsReply: true,
}

// Dispatcher routes chat commands to their handlers. Handlers touch domain state
// directly, so Dispatch must run on the goroutine that owns that state.
type Dispatcher struct {
	log        logger.Logger
	reply      ports.ReplyPort
	handlers   map[string]Command
	privileged map[string]bool
}

func New(log logger.Logger, reply ports.ReplyPort, emit ports.EventListener, engine *voting.Engine, planner *city.Planner, ledger *rewards.Ledger, streamer func() string) *Dispatcher {
	if emit == nil {
		emit = func(ports.Event) {}
	}

	return &Dispatcher{
		log:   log,
		reply: reply,
		handlers: map[string]Command{
			"vote":     &Vote{engine: engine, emit: emit},
			"proposal": &Proposal{},
			"city":     &City{planner: planner, engine: engine, ledger: ledger, streamer: streamer},
			"help":     &Help{},
			"build":    &CityAction{action: city.Build, planner: planner, emit: emit},
			"upgrade":  &CityAction{action: city.Upgrade, planner: planner, emit: emit},
			"demolish": &CityAction{action: city.Demolish, planner: planner, emit: emit},
		},
		privileged: map[string]bool{
			"build":    true,
			"upgrade":  true,
			"demolish": true,
		},
	}
}

// Dispatch reports whether the command was recognised; unknown commands stay silent.
func (d *Dispatcher) Dispatch(cmd *message.ChatCommand) bool {
	if cmd == nil {
		return false
	}

	handler, ok := d.handlers[cmd.Name]
	if !ok {
		d.log.Debug("Unknown command ignored", slog.String("cmd", cmd.Name), slog.String("user", cmd.User.Username))
		return false
	}

	start := time.Now()
	defer func() {
		metrics.CommandProcessingTime.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()
	metrics.UserCommands.WithLabelValues(cmd.Name).Inc()

	var answer *ports.AnswerType
	if d.privileged[cmd.Name] && !cmd.User.Privileged() {
		d.log.Info("Privileged command rejected", slog.String("cmd", cmd.Name), slog.String("user", cmd.User.Username))
		answer = notPrivileged
	} else {
		answer = handler.Execute(cmd)
	}

	d.answer(cmd, answer)
	return true
}

func (d *Dispatcher) answer(cmd *message.ChatCommand, answer *ports.AnswerType) {
	if answer == nil || d.reply == nil {
		return
	}

	for _, text := range answer.Text {
		if answer.IsReply {
			text = "@" + cmd.User.Username + " " + text
		}
		d.reply.Say(text)
	}
}
