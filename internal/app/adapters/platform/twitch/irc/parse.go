package irc

import (
	"github.com/google/uuid"
	"metacity/internal/app/domain/message"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	KindOther Kind = iota
	KindPing
	KindWelcome
	KindPrivmsg
	KindAuthFailed
	KindReconnect
)

const defaultPingPayload = "tmi.twitch.tv"

// Line is one tokenized protocol line:
//
//	line   = ["@" tags SP] [":" prefix SP] command *(SP param) [SP ":" trailing]
//	tags   = tag *(";" tag)
//	tag    = key ["=" escaped-value]
//	prefix = nick ["!" user] ["@" host]
type Line struct {
	Kind     Kind
	Tags     map[string]string
	Nick     string
	Command  string
	Params   []string
	Trailing string
}

// Parse never fails; anything it cannot make sense of is KindOther.
func Parse(raw string) Line {
	line := strings.TrimRight(raw, "\r\n")
	var l Line

	if strings.HasPrefix(line, "@") {
		sp := strings.IndexByte(line, ' ')
		if sp == -1 {
			return l
		}
		l.Tags = parseTags(line[1:sp])
		line = line[sp+1:]
	}
	line = strings.TrimLeft(line, " ")

	if strings.HasPrefix(line, ":") {
		sp := strings.IndexByte(line, ' ')
		if sp == -1 {
			return l
		}
		prefix := line[1:sp]
		if bang := strings.IndexAny(prefix, "!@"); bang != -1 {
			prefix = prefix[:bang]
		}
		l.Nick = prefix
		line = strings.TrimLeft(line[sp+1:], " ")
	}

	command, rest, _ := strings.Cut(line, " ")
	l.Command = strings.ToUpper(command)

	for rest != "" {
		if rest[0] == ':' {
			l.Trailing = rest[1:]
			break
		}
		var param string
		param, rest, _ = strings.Cut(rest, " ")
		if param != "" {
			l.Params = append(l.Params, param)
		}
	}

	l.Kind = classify(&l)
	return l
}

func classify(l *Line) Kind {
	switch l.Command {
	case "PING":
		return KindPing
	case "001":
		return KindWelcome
	case "PRIVMSG":
		return KindPrivmsg
	case "RECONNECT":
		return KindReconnect
	case "NOTICE":
		if strings.Contains(l.Trailing, "Login authentication failed") || strings.Contains(l.Trailing, "Improperly formatted auth") {
			return KindAuthFailed
		}
	}
	if strings.Contains(l.Trailing, "Welcome, GLHF!") {
		return KindWelcome
	}
	return KindOther
}

// Pong builds the keepalive reply for a PING line.
func (l Line) Pong() string {
	payload := l.Trailing
	if payload == "" && len(l.Params) > 0 {
		payload = l.Params[0]
	}
	if payload == "" {
		payload = defaultPingPayload
	}
	return "PONG :" + payload
}

// ChatMessage returns nil unless the line is a well-formed PRIVMSG with a sender,
// a channel and a payload.
func (l Line) ChatMessage(now time.Time) *message.ChatMessage {
	if l.Kind != KindPrivmsg || l.Nick == "" || len(l.Params) == 0 || l.Trailing == "" {
		return nil
	}

	tags := l.Tags
	if tags == nil {
		tags = map[string]string{}
	}

	msg := &message.ChatMessage{
		ID:          tags["id"],
		UserID:      tags["user-id"],
		Username:    l.Nick,
		DisplayName: tags["display-name"],
		Channel:     strings.TrimPrefix(l.Params[0], "#"),
		Text:        l.Trailing,
		Timestamp:   now,
		Color:       tags["color"],
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.DisplayName == "" {
		msg.DisplayName = l.Nick
	}
	if ts, err := strconv.ParseInt(tags["tmi-sent-ts"], 10, 64); err == nil && ts > 0 {
		msg.Timestamp = time.UnixMilli(ts)
	}

	for _, b := range strings.Split(tags["badges"], ",") {
		if b != "" {
			msg.Badges = append(msg.Badges, b)
		}
	}

	msg.IsBroadcaster = msg.HasBadge("broadcaster")
	msg.IsModerator = tags["mod"] == "1" || msg.HasBadge("moderator")
	msg.IsSubscriber = tags["subscriber"] == "1" || msg.HasBadge("subscriber") || msg.HasBadge("founder")
	msg.IsVip = tags["vip"] == "1" || msg.HasBadge("vip")

	return msg
}

// ParseMessage is Parse followed by ChatMessage.
func ParseMessage(raw string, now time.Time) *message.ChatMessage {
	return Parse(raw).ChatMessage(now)
}

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)

	start := 0
	for i := 0; i <= len(raw); i++ {
		if i < len(raw) && raw[i] != ';' {
			continue
		}
		if tag := raw[start:i]; tag != "" {
			k, v, _ := strings.Cut(tag, "=")
			if k != "" {
				tags[k] = unescapeTag(v)
			}
		}
		start = i + 1
	}

	return tags
}

func unescapeTag(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}

	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' {
			b.WriteByte(v[i])
			continue
		}
		if i+1 == len(v) {
			break
		}
		i++
		switch v[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(v[i])
		}
	}
	return b.String()
}
