package irc

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Kind
	}{
		{name: "ping", line: "PING :tmi.twitch.tv", want: KindPing},
		{name: "ping with crlf", line: "PING :tmi.twitch.tv\r\n", want: KindPing},
		{name: "welcome numeric", line: ":tmi.twitch.tv 001 metacity :Welcome, GLHF!", want: KindWelcome},
		{name: "privmsg", line: ":bob!bob@bob.tmi.twitch.tv PRIVMSG #city :hello", want: KindPrivmsg},
		{name: "auth failed", line: ":tmi.twitch.tv NOTICE * :Login authentication failed", want: KindAuthFailed},
		{name: "bad auth format", line: ":tmi.twitch.tv NOTICE * :Improperly formatted auth", want: KindAuthFailed},
		{name: "other notice", line: ":tmi.twitch.tv NOTICE #city :slow mode", want: KindOther},
		{name: "reconnect", line: ":tmi.twitch.tv RECONNECT", want: KindReconnect},
		{name: "cap ack", line: ":tmi.twitch.tv CAP * ACK :twitch.tv/tags", want: KindOther},
		{name: "chat text mentioning ping", line: ":bob!bob@bob PRIVMSG #city :PING me later", want: KindPrivmsg},
		{name: "empty", line: "", want: KindOther},
		{name: "tags only", line: "@id=1;mod=0", want: KindOther},
		{name: "prefix only", line: ":tmi.twitch.tv", want: KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line).Kind)
		})
	}
}

func TestLine_Pong(t *testing.T) {
	assert.Equal(t, "PONG :tmi.twitch.tv", Parse("PING :tmi.twitch.tv").Pong())
	assert.Equal(t, "PONG :tmi.twitch.tv", Parse("PING").Pong())
	assert.Equal(t, "PONG :irc.example", Parse("PING irc.example").Pong())
}

func TestParseMessage_Full(t *testing.T) {
	line := `@badge-info=subscriber/8;badges=broadcaster/1,subscriber/6;color=#FF4500;display-name=Mayor;` +
		`id=abc-123;mod=0;subscriber=1;tmi-sent-ts=1700000000000;user-id=777;vip=0 ` +
		`:mayor!mayor@mayor.tmi.twitch.tv PRIVMSG #MetaCity :!vote p1 yes`

	msg := ParseMessage(line, time.Unix(1, 0))
	require.NotNil(t, msg)

	assert.Equal(t, "abc-123", msg.ID)
	assert.Equal(t, "777", msg.UserID)
	assert.Equal(t, "mayor", msg.Username)
	assert.Equal(t, "Mayor", msg.DisplayName)
	assert.Equal(t, "MetaCity", msg.Channel)
	assert.Equal(t, "!vote p1 yes", msg.Text)
	assert.Equal(t, "#FF4500", msg.Color)
	assert.Equal(t, []string{"broadcaster/1", "subscriber/6"}, msg.Badges)
	assert.Equal(t, time.UnixMilli(1700000000000), msg.Timestamp)
	assert.True(t, msg.IsBroadcaster)
	assert.True(t, msg.IsSubscriber)
	assert.False(t, msg.IsModerator)
	assert.False(t, msg.IsVip)
}

func TestParseMessage_Defaults(t *testing.T) {
	now := time.Unix(100, 0)
	msg := ParseMessage(":bob!bob@bob.tmi.twitch.tv PRIVMSG #city :hi there: friend", now)
	require.NotNil(t, msg)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "", msg.UserID)
	assert.Equal(t, "bob", msg.DisplayName)
	assert.Equal(t, "hi there: friend", msg.Text)
	assert.Equal(t, now, msg.Timestamp)
	assert.Empty(t, msg.Badges)
	assert.False(t, msg.IsBroadcaster || msg.IsModerator || msg.IsSubscriber || msg.IsVip)
}

func TestParseMessage_PrivilegeTags(t *testing.T) {
	tests := []struct {
		name       string
		tags       string
		mod, sub   bool
		vip, owner bool
	}{
		{name: "mod tag", tags: "mod=1", mod: true},
		{name: "moderator badge", tags: "badges=moderator/1", mod: true},
		{name: "subscriber tag", tags: "subscriber=1", sub: true},
		{name: "founder badge", tags: "badges=founder/0", sub: true},
		{name: "vip tag", tags: "vip=1", vip: true},
		{name: "broadcaster badge only", tags: "badges=broadcaster/1", owner: true},
		{name: "empty values", tags: "mod=;subscriber=;badges="},
		{name: "keys without values", tags: "mod;subscriber;;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ParseMessage("@"+tt.tags+" :u!u@u PRIVMSG #c :text", time.Now())
			require.NotNil(t, msg)
			assert.Equal(t, tt.mod, msg.IsModerator)
			assert.Equal(t, tt.sub, msg.IsSubscriber)
			assert.Equal(t, tt.vip, msg.IsVip)
			assert.Equal(t, tt.owner, msg.IsBroadcaster)
		})
	}
}

func TestParseMessage_Malformed(t *testing.T) {
	lines := []string{
		"",
		"PING :tmi.twitch.tv",
		":tmi.twitch.tv 001 metacity :Welcome, GLHF!",
		"@id=1 :bob!bob@bob PRIVMSG",
		"@id=1 :bob!bob@bob PRIVMSG #city",
		"@id=1 :bob!bob@bob PRIVMSG #city :",
		"PRIVMSG #city :no sender",
		"@broken-tags-without-space",
		":::: PRIVMSG",
		"\x00\xff garbage",
		"@;;;=;== :x PRIVMSG",
	}

	for _, line := range lines {
		assert.NotPanics(t, func() {
			assert.Nil(t, ParseMessage(line, time.Now()), line)
		})
	}
}

func TestParseTags_Unescape(t *testing.T) {
	tags := parseTags(`display-name=a\sb;system-msg=x\:y\\z;trail=end\;lines=1\r\n2;other=\q`)

	assert.Equal(t, "a b", tags["display-name"])
	assert.Equal(t, `x;y\z`, tags["system-msg"])
	assert.Equal(t, "end", tags["trail"])
	assert.Equal(t, "1\r\n2", tags["lines"])
	assert.Equal(t, "q", tags["other"])
}
