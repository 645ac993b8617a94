package twitch

import (
	"github.com/jonboulle/clockwork"
	"metacity/internal/app/adapters/platform/twitch/api"
	"metacity/internal/app/adapters/platform/twitch/irc"
	"metacity/internal/app/infrastructure/config"
	"metacity/internal/app/ports"
	"metacity/pkg/logger"
	"net/http"
)

// Twitch bundles the helix client and the chat connection that share one HTTP client.
type Twitch struct {
	api *api.Twitch
	irc *irc.IRC
}

func New(log logger.Logger, manager *config.Manager, client *http.Client, clock clockwork.Clock) *Twitch {
	cfg := manager.Get()

	return &Twitch{
		api: api.NewTwitch(logger.NewPrefixedLogger(log, "api"), manager, client, clock, 2),
		irc: irc.New(logger.NewPrefixedLogger(log, "chat"), cfg, irc.NewWebsocketDialer(client), clock),
	}
}

func (t *Twitch) API() ports.APIPort {
	return t.api
}

func (t *Twitch) Pool() ports.APIPoolPort {
	return t.api.Pool()
}

func (t *Twitch) Chat() *irc.IRC {
	return t.irc
}

func (t *Twitch) Close() {
	t.irc.Disconnect()
	t.api.Pool().Stop()
}
