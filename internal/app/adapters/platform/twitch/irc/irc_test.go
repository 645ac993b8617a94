package irc

import (
	"context"
	"errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"metacity/internal/app/infrastructure/config"
	"metacity/internal/app/ports"
	"metacity/pkg/logger"
	"strings"
	"sync"
	"testing"
	"time"
)

const welcome = ":tmi.twitch.tv 001 metabot :Welcome, GLHF!"

type fakeTransport struct {
	in     chan string
	mu     sync.Mutex
	lines  []string
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{in: make(chan string, 16)}
}

func (t *fakeTransport) ReadMessage() (string, error) {
	frame, ok := <-t.in
	if !ok {
		return "", errors.New("closed")
	}
	return frame, nil
}

func (t *fakeTransport) WriteMessage(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("closed")
	}
	t.lines = append(t.lines, line)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.in)
	}
	return nil
}

func (t *fakeTransport) written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

func (t *fakeTransport) wrote(line string) bool {
	for _, l := range t.written() {
		if l == line {
			return true
		}
	}
	return false
}

type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
	dials      int
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.transports) == 0 {
		return nil, errors.New("connection refused")
	}
	t := d.transports[0]
	d.transports = d.transports[1:]
	return t, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type recorder struct {
	events chan ports.ChatEvent
}

func (r *recorder) OnChatEvent(ev ports.ChatEvent) {
	r.events <- ev
}

func (r *recorder) next(t *testing.T) ports.ChatEvent {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chat event")
		return ports.ChatEvent{}
	}
}

func (r *recorder) expect(t *testing.T, typ ports.ChatEventType) ports.ChatEvent {
	t.Helper()
	for {
		ev := r.next(t)
		if ev.Type == typ {
			return ev
		}
	}
}

func testConfig() config.Config {
	cfg := *config.Default()
	cfg.Reconnect.MaxAttempts = 3
	return cfg
}

func newTestIRC(t *testing.T, cfg config.Config, transports ...*fakeTransport) (*IRC, *fakeDialer, *clockwork.FakeClock, *recorder) {
	t.Helper()
	dialer := &fakeDialer{transports: transports}
	clock := clockwork.NewFakeClock()
	rec := &recorder{events: make(chan ports.ChatEvent, 64)}

	i := New(logger.NewNop(), cfg, dialer, clock)
	i.SetListener(rec)
	i.SetCredentials("MetaBot", "oauth:secret")
	t.Cleanup(i.Disconnect)
	return i, dialer, clock, rec
}

func connected(t *testing.T, cfg config.Config) (*IRC, *fakeTransport, *recorder) {
	t.Helper()
	tr := newFakeTransport()
	i, _, _, rec := newTestIRC(t, cfg, tr)
	i.Connect()
	tr.in <- welcome
	rec.expect(t, ports.ChatConnected)
	return i, tr, rec
}

func TestConnect_Handshake(t *testing.T) {
	tr := newFakeTransport()
	i, _, _, rec := newTestIRC(t, testConfig(), tr)

	i.JoinChannel("#MetaCity")
	assert.Empty(t, tr.written())

	i.Connect()
	require.Eventually(t, func() bool { return len(tr.written()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		"CAP REQ :twitch.tv/membership twitch.tv/tags twitch.tv/commands",
		"PASS oauth:secret",
		"NICK metabot",
	}, tr.written()[:3])
	assert.Equal(t, ports.Connecting, i.State())

	tr.in <- welcome
	rec.expect(t, ports.ChatConnected)
	assert.Equal(t, ports.Connected, i.State())
	assert.True(t, tr.wrote("JOIN #metacity"))
}

func TestPingAnsweredWithPong(t *testing.T) {
	_, tr, _ := connected(t, testConfig())

	tr.in <- "PING :tmi.twitch.tv"
	require.Eventually(t, func() bool { return tr.wrote("PONG :tmi.twitch.tv") }, 2*time.Second, 5*time.Millisecond)
}

func TestMultipleLinesPerFrame(t *testing.T) {
	_, tr, rec := connected(t, testConfig())

	tr.in <- "PING :tmi.twitch.tv\r\n@display-name=Alice :alice!alice@alice.tmi.twitch.tv PRIVMSG #metacity :hello city\r\n"

	ev := rec.expect(t, ports.ChatMessage)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "hello city", ev.Message.Text)
	assert.Equal(t, "Alice", ev.Message.DisplayName)
	assert.True(t, tr.wrote("PONG :tmi.twitch.tv"))
}

func TestJoinAndLeaveWhileConnected(t *testing.T) {
	i, tr, _ := connected(t, testConfig())

	i.JoinChannel("SomeChannel")
	i.LeaveChannel("#somechannel")

	assert.True(t, tr.wrote("JOIN #somechannel"))
	assert.True(t, tr.wrote("PART #somechannel"))
}

func TestSend(t *testing.T) {
	t.Run("dropped when not connected", func(t *testing.T) {
		i, _, _, _ := newTestIRC(t, testConfig())
		assert.False(t, i.Send("metacity", "hello"))
	})

	t.Run("written when connected", func(t *testing.T) {
		i, tr, _ := connected(t, testConfig())
		assert.True(t, i.Send("#MetaCity", "hello"))
		assert.True(t, tr.wrote("PRIVMSG #metacity :hello"))
	})

	t.Run("dropped when too long", func(t *testing.T) {
		i, tr, _ := connected(t, testConfig())
		assert.False(t, i.Send("metacity", strings.Repeat("a", 501)))
		assert.True(t, i.Send("metacity", strings.Repeat("a", 500)))
		assert.Len(t, tr.written(), 4)
	})

	t.Run("dropped when rate limited", func(t *testing.T) {
		cfg := testConfig()
		cfg.Chat.Limiter = config.Limiter{Requests: 2, PerSecs: 30}
		i, _, _ := connected(t, cfg)

		assert.True(t, i.Send("metacity", "one"))
		assert.True(t, i.Send("metacity", "two"))
		assert.False(t, i.Send("metacity", "three"))
	})
}

func TestReconnect_BoundedAttempts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	i, dialer, clock, rec := newTestIRC(t, testConfig())
	i.Connect()

	for attempt := 1; attempt <= 3; attempt++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		assert.Equal(t, ports.Reconnecting, i.State())
		assert.Equal(t, attempt, i.Attempts())
		clock.Advance(5 * time.Second * time.Duration(attempt))
	}

	rec.expect(t, ports.ChatReconnectFailed)
	assert.Equal(t, 4, dialer.count())
	assert.Equal(t, ports.Disconnected, i.State())

	clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 4, dialer.count())
	assert.Never(t, func() bool {
		select {
		case ev := <-rec.events:
			return ev.Type == ports.ChatReconnectFailed
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestReconnect_DelayGrowsLinearly(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	i, dialer, clock, _ := newTestIRC(t, testConfig())
	i.Connect()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 2, dialer.count())

	clock.Advance(9 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, dialer.count())

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return dialer.count() == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, ports.Reconnecting, i.State())
}

func TestLogoutCancelsPendingReconnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	i, dialer, clock, _ := newTestIRC(t, testConfig())
	i.Connect()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	i.Logout()
	assert.Equal(t, ports.LoggedOut, i.State())
	require.NoError(t, clock.BlockUntilContext(ctx, 0))

	clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, dialer.count())
	assert.Equal(t, ports.LoggedOut, i.State())
}

func TestUnexpectedCloseSchedulesReconnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, second := newFakeTransport(), newFakeTransport()
	i, dialer, clock, rec := newTestIRC(t, testConfig(), first, second)

	i.JoinChannel("metacity")
	i.Connect()
	first.in <- welcome
	rec.expect(t, ports.ChatConnected)

	_ = first.Close()
	rec.expect(t, ports.ChatDisconnected)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, ports.Reconnecting, i.State())

	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return dialer.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	second.in <- welcome
	rec.expect(t, ports.ChatConnected)
	assert.Equal(t, 0, i.Attempts())
	assert.True(t, second.wrote("JOIN #metacity"))
}

func TestServerReconnectTreatedAsClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr := newFakeTransport()
	i, _, clock, rec := newTestIRC(t, testConfig(), tr)
	i.Connect()
	tr.in <- welcome
	rec.expect(t, ports.ChatConnected)

	tr.in <- ":tmi.twitch.tv RECONNECT"
	ev := rec.expect(t, ports.ChatDisconnected)
	assert.ErrorIs(t, ev.Err, ErrServerReconnect)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, ports.Reconnecting, i.State())
}

func TestAuthFailureDoesNotReconnect(t *testing.T) {
	tr := newFakeTransport()
	i, dialer, clock, rec := newTestIRC(t, testConfig(), tr)
	i.Connect()

	tr.in <- ":tmi.twitch.tv NOTICE * :Login authentication failed"
	rec.expect(t, ports.ChatAuthFailed)
	assert.Equal(t, ports.Disconnected, i.State())

	clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, dialer.count())
}

func TestConnectWithoutCredentials(t *testing.T) {
	i, dialer, _, rec := newTestIRC(t, testConfig())
	i.SetCredentials("", "")

	i.Connect()
	rec.expect(t, ports.ChatAuthFailed)
	assert.Equal(t, 0, dialer.count())
	assert.Equal(t, ports.Disconnected, i.State())
}
