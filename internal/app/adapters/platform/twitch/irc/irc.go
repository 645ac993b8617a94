package irc

import (
	"context"
	"errors"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
	"log/slog"
	"metacity/internal/app/infrastructure/config"
	"metacity/internal/app/ports"
	"metacity/pkg/logger"
	"strings"
	"sync"
	"time"
)

const (
	capabilities = "CAP REQ :twitch.tv/membership twitch.tv/tags twitch.tv/commands"
	dialTimeout  = 10 * time.Second
)

var (
	ErrServerReconnect = errors.New("server requested reconnect")
	errNoCredentials   = errors.New("no chat credentials")
)

type IRC struct {
	log         logger.Logger
	dialer      Dialer
	clock       clockwork.Clock
	url         string
	baseDelay   time.Duration
	maxAttempts int
	maxLen      int
	limiter     *rate.Limiter

	mu       sync.Mutex
	listener ports.ChatListener
	state    ports.ConnState
	login    string
	token    string
	channels map[string]struct{}
	conn     Transport
	attempts int
	// gen invalidates read loops and timers that belong to an abandoned connection.
	gen  uint64
	next clockwork.Timer

	writeMu sync.Mutex
}

func New(log logger.Logger, cfg config.Config, dialer Dialer, clock clockwork.Clock) *IRC {
	limit := rate.Inf
	burst := 0
	if cfg.Chat.Limiter.Requests > 0 {
		limit = rate.Every(cfg.Chat.Limiter.Per() / time.Duration(cfg.Chat.Limiter.Requests))
		burst = cfg.Chat.Limiter.Requests
	}

	return &IRC{
		log:         log,
		dialer:      dialer,
		clock:       clock,
		url:         cfg.Twitch.ChatURL,
		baseDelay:   cfg.Reconnect.BaseDelay(),
		maxAttempts: cfg.Reconnect.MaxAttempts,
		maxLen:      cfg.Chat.MaxMessageLength,
		limiter:     rate.NewLimiter(limit, burst),
		state:       ports.Disconnected,
		channels:    make(map[string]struct{}),
	}
}

func (i *IRC) SetListener(l ports.ChatListener) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listener = l
}

func (i *IRC) SetCredentials(login, token string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.login = strings.ToLower(login)
	i.token = strings.TrimPrefix(token, "oauth:")
}

func (i *IRC) State() ports.ConnState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *IRC) Attempts() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.attempts
}

// Connect starts a fresh attempt in the background and resets the retry budget.
func (i *IRC) Connect() {
	i.mu.Lock()
	if i.state == ports.Connecting || i.state == ports.Connected {
		i.mu.Unlock()
		return
	}
	i.cancelNextLocked()
	i.attempts = 0
	i.state = ports.Connecting
	i.gen++
	gen := i.gen
	i.mu.Unlock()

	go i.run(gen)
}

func (i *IRC) JoinChannel(channel string) {
	channel = normalizeChannel(channel)
	if channel == "" {
		return
	}

	i.mu.Lock()
	i.channels[channel] = struct{}{}
	conn, ok := i.connectedLocked()
	i.mu.Unlock()

	if ok {
		i.write(conn, "JOIN #"+channel)
	}
}

func (i *IRC) LeaveChannel(channel string) {
	channel = normalizeChannel(channel)

	i.mu.Lock()
	delete(i.channels, channel)
	conn, ok := i.connectedLocked()
	i.mu.Unlock()

	if ok {
		i.write(conn, "PART #"+channel)
	}
}

// Send drops the line when not connected, too long or rate limited; nothing is queued.
func (i *IRC) Send(channel, text string) bool {
	channel = normalizeChannel(channel)

	i.mu.Lock()
	conn, ok := i.connectedLocked()
	i.mu.Unlock()

	switch {
	case !ok || channel == "":
		i.log.Debug("Chat message dropped, not connected", slog.String("channel", channel))
		return false
	case len(text) > i.maxLen:
		i.log.Warn("Chat message too long", slog.Int("length", len(text)))
		return false
	case !i.limiter.Allow():
		i.log.Warn("Chat rate limit exceeded, message dropped", slog.String("channel", channel))
		return false
	}

	return i.write(conn, "PRIVMSG #"+channel+" :"+text) == nil
}

// Disconnect closes the socket and cancels any pending reconnect.
func (i *IRC) Disconnect() {
	i.shutdown(ports.Disconnected)
}

func (i *IRC) Logout() {
	i.shutdown(ports.LoggedOut)

	i.mu.Lock()
	i.login, i.token = "", ""
	i.channels = make(map[string]struct{})
	i.mu.Unlock()
}

func (i *IRC) shutdown(state ports.ConnState) {
	i.mu.Lock()
	i.gen++
	i.cancelNextLocked()
	conn := i.conn
	i.conn = nil
	i.attempts = 0
	i.state = state
	i.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (i *IRC) run(gen uint64) {
	i.mu.Lock()
	login, token := i.login, i.token
	i.mu.Unlock()

	if login == "" || token == "" {
		i.log.Warn("Chat connect skipped, not authenticated")
		i.mu.Lock()
		if gen == i.gen {
			i.state = ports.Disconnected
		}
		i.mu.Unlock()
		i.emit(ports.ChatEvent{Type: ports.ChatAuthFailed, Err: errNoCredentials})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	conn, err := i.dialer.Dial(ctx, i.url)
	cancel()
	if err != nil {
		i.log.Error("Failed to connect to Twitch chat", err, slog.String("url", i.url))
		i.failed(gen, err)
		return
	}

	i.mu.Lock()
	if gen != i.gen {
		i.mu.Unlock()
		_ = conn.Close()
		return
	}
	i.conn = conn
	i.mu.Unlock()

	for _, line := range []string{capabilities, "PASS oauth:" + token, "NICK " + login} {
		if err := i.write(conn, line); err != nil {
			_ = conn.Close()
			i.failed(gen, err)
			return
		}
	}

	i.listen(gen, conn)
}

func (i *IRC) listen(gen uint64, conn Transport) {
	i.log.Info("Listening on Twitch chat")

	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			i.failed(gen, err)
			return
		}

		for _, raw := range strings.Split(frame, "\n") {
			raw = strings.TrimRight(raw, "\r")
			if raw == "" {
				continue
			}
			if !i.handleLine(gen, conn, raw) {
				return
			}
		}
	}
}

// handleLine returns false once the connection is finished with.
func (i *IRC) handleLine(gen uint64, conn Transport, raw string) bool {
	line := Parse(raw)
	i.log.Trace("Chat line", slog.String("line", raw))

	switch line.Kind {
	case KindPing:
		_ = i.write(conn, line.Pong())

	case KindWelcome:
		i.mu.Lock()
		if gen != i.gen {
			i.mu.Unlock()
			return false
		}
		i.state = ports.Connected
		i.attempts = 0
		channels := make([]string, 0, len(i.channels))
		for ch := range i.channels {
			channels = append(channels, ch)
		}
		i.mu.Unlock()

		for _, ch := range channels {
			_ = i.write(conn, "JOIN #"+ch)
		}
		i.log.Info("Connected to Twitch chat", slog.Int("channels", len(channels)))
		i.emit(ports.ChatEvent{Type: ports.ChatConnected})

	case KindAuthFailed:
		i.log.Error("Chat authentication failed", nil, slog.String("notice", line.Trailing))
		i.mu.Lock()
		if gen != i.gen {
			i.mu.Unlock()
			return false
		}
		i.gen++
		i.conn = nil
		i.state = ports.Disconnected
		i.mu.Unlock()

		_ = conn.Close()
		i.emit(ports.ChatEvent{Type: ports.ChatAuthFailed, Err: errors.New(line.Trailing)})
		return false

	case KindReconnect:
		i.log.Warn("Twitch chat asked to reconnect")
		_ = conn.Close()
		i.failed(gen, ErrServerReconnect)
		return false

	case KindPrivmsg:
		if msg := line.ChatMessage(i.clock.Now()); msg != nil {
			i.emit(ports.ChatEvent{Type: ports.ChatMessage, Message: msg})
		}
	}

	return true
}

// failed moves a live generation into the reconnect path; stale generations are ignored.
func (i *IRC) failed(gen uint64, cause error) {
	i.mu.Lock()
	if gen != i.gen {
		i.mu.Unlock()
		return
	}
	i.conn = nil

	if i.attempts >= i.maxAttempts {
		i.state = ports.Disconnected
		i.gen++
		attempts := i.attempts
		i.mu.Unlock()

		i.log.Error("Chat reconnect attempts exhausted", cause, slog.Int("attempts", attempts))
		i.emit(ports.ChatEvent{Type: ports.ChatDisconnected, Err: cause})
		i.emit(ports.ChatEvent{Type: ports.ChatReconnectFailed, Err: cause})
		return
	}

	i.attempts++
	delay := i.baseDelay * time.Duration(i.attempts)
	i.state = ports.Reconnecting
	i.next = i.clock.AfterFunc(delay, func() { i.retry(gen) })
	attempts := i.attempts
	i.mu.Unlock()

	i.log.Warn("Chat connection lost, retrying", slog.Int("attempt", attempts), slog.Duration("delay", delay))
	i.emit(ports.ChatEvent{Type: ports.ChatDisconnected, Err: cause})
}

func (i *IRC) retry(gen uint64) {
	i.mu.Lock()
	if gen != i.gen || i.state != ports.Reconnecting {
		i.mu.Unlock()
		return
	}
	i.next = nil
	i.state = ports.Connecting
	i.mu.Unlock()

	i.run(gen)
}

func (i *IRC) cancelNextLocked() {
	if i.next != nil {
		i.next.Stop()
		i.next = nil
	}
}

func (i *IRC) connectedLocked() (Transport, bool) {
	if i.state != ports.Connected || i.conn == nil {
		return nil, false
	}
	return i.conn, true
}

func (i *IRC) write(conn Transport, line string) error {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	if err := conn.WriteMessage(line); err != nil {
		i.log.Error("Failed to write to Twitch chat", err)
		return err
	}
	return nil
}

func (i *IRC) emit(ev ports.ChatEvent) {
	i.mu.Lock()
	l := i.listener
	i.mu.Unlock()

	if l != nil {
		l.OnChatEvent(ev)
	}
}

func normalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(channel), "#"))
}
