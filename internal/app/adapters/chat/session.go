package chat

import (
	"context"
	"errors"
	"github.com/jonboulle/clockwork"
	"metacity/internal/app/adapters/commands"
	"metacity/internal/app/domain/city"
	"metacity/internal/app/domain/message"
	"metacity/internal/app/domain/rewards"
	"metacity/internal/app/domain/stream"
	"metacity/internal/app/domain/voting"
	"metacity/internal/app/infrastructure/config"
	"metacity/internal/app/infrastructure/storage"
	"metacity/internal/app/ports"
	"metacity/pkg/logger"
	"sync"
	"time"
)

var (
	ErrNotAuthenticated = errors.New("please login to Twitch first")
	ErrStateMismatch    = errors.New("oauth state mismatch")
	ErrNotJoined        = errors.New("not joined to a chat channel")
	ErrMessageDropped   = errors.New("message dropped")
	ErrStopped          = errors.New("session stopped")
)

const requestTimeout = 10 * time.Second

// Session owns every piece of streaming state. All of it is touched only from the
// goroutine running Run; public methods hand work to that goroutine and wait.
type Session struct {
	log   logger.Logger
	clock clockwork.Clock
	cfg   config.Config
	api   ports.APIPort
	pool  ports.APIPoolPort
	chat  ports.ChatPort

	actions chan func()
	stopped chan struct{}

	subsMu  sync.RWMutex
	subs    map[uint64]ports.EventListener
	nextSub uint64

	// actor state
	user        *ports.TwitchUser
	oauthState  string
	authRetried bool
	channel     string
	streaming   bool
	streamGen   uint64
	stats       *ports.StreamStats
	ticker      clockwork.Ticker
	recap       *stream.Stats
	lastRecap   *stream.Summary

	engine     *voting.Engine
	planner    *city.Planner
	ledger     *rewards.Ledger
	messages   *storage.Store[*message.ChatMessage]
	commands   *storage.Store[*message.ChatCommand]
	dispatcher *commands.Dispatcher
}

type Options struct {
	Clock        clockwork.Clock
	VotingOption []voting.Option
}

func New(log logger.Logger, cfg config.Config, api ports.APIPort, pool ports.APIPoolPort, chat ports.ChatPort, opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Session{
		log:      log,
		clock:    clock,
		cfg:      cfg,
		api:      api,
		pool:     pool,
		chat:     chat,
		actions:  make(chan func(), 256),
		stopped:  make(chan struct{}),
		subs:     make(map[uint64]ports.EventListener),
		engine:   voting.New(cfg.Voting.DefaultDuration(), append([]voting.Option{voting.WithClock(clock)}, opts.VotingOption...)...),
		planner:  city.NewPlanner(clock),
		ledger:   rewards.New(clock),
		recap:    stream.NewStats(),
		messages: storage.New[*message.ChatMessage](cfg.Chat.MessageBuffer),
		commands: storage.New[*message.ChatCommand](cfg.Chat.CommandBuffer),
	}
	s.dispatcher = commands.New(logger.NewPrefixedLogger(log, "commands"), chatReply{s: s}, s.publish,
		s.engine, s.planner, s.ledger, s.login)

	return s
}

// Run processes queued work until ctx is done.
func (s *Session) Run(ctx context.Context) {
	defer close(s.stopped)
	defer s.stopTicker()

	for {
		var tick <-chan time.Time
		if s.ticker != nil {
			tick = s.ticker.Chan()
		}

		select {
		case <-ctx.Done():
			return
		case fn := <-s.actions:
			fn()
		case <-tick:
			s.pollStats()
		}
	}
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(fn func()) error {
	done := make(chan struct{})
	select {
	case s.actions <- func() { fn(); close(done) }:
	case <-s.stopped:
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-s.stopped:
		return ErrStopped
	}
}

// post queues fn without waiting; used by callbacks from other goroutines.
func (s *Session) post(fn func()) {
	select {
	case s.actions <- fn:
	case <-s.stopped:
	}
}

// Subscribe registers fn for every session event. Listeners run on the session
// goroutine and must not block or call back into the session.
func (s *Session) Subscribe(fn ports.EventListener) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Session) publish(ev ports.Event) {
	if ev.Time.IsZero() {
		ev.Time = s.clock.Now()
	}

	s.subsMu.RLock()
	listeners := make([]ports.EventListener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (s *Session) login() string {
	if s.user == nil {
		return ""
	}
	return s.user.Login
}

type chatReply struct {
	s *Session
}

func (r chatReply) Say(text string) {
	r.s.say(text)
}
