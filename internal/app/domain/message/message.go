package message

import (
	"strings"
	"time"
)

// CommandPrefix marks a chat line as a command invocation.
const CommandPrefix = '!'

type ChatMessage struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Channel       string    `json:"channel"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
	Badges        []string  `json:"badges"`
	Color         string    `json:"color,omitempty"`
	IsSubscriber  bool      `json:"is_subscriber"`
	IsModerator   bool      `json:"is_moderator"`
	IsVip         bool      `json:"is_vip"`
	IsBroadcaster bool      `json:"is_broadcaster"`
}

// Chatter is the identity and privilege snapshot taken when a command is parsed.
type Chatter struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	IsSubscriber  bool   `json:"is_subscriber"`
	IsModerator   bool   `json:"is_moderator"`
	IsBroadcaster bool   `json:"is_broadcaster"`
}

type ChatCommand struct {
	Name    string       `json:"command"`
	Args    []string     `json:"args"`
	User    Chatter      `json:"user"`
	Message *ChatMessage `json:"message"`
}

func (m *ChatMessage) Chatter() Chatter {
	return Chatter{
		ID:            m.UserID,
		Username:      m.Username,
		DisplayName:   m.DisplayName,
		IsSubscriber:  m.IsSubscriber,
		IsModerator:   m.IsModerator,
		IsBroadcaster: m.IsBroadcaster,
	}
}

// HasBadge reports whether the badge list contains name, ignoring the version suffix.
func (m *ChatMessage) HasBadge(name string) bool {
	for _, b := range m.Badges {
		badge, _, _ := strings.Cut(b, "/")
		if badge == name {
			return true
		}
	}
	return false
}

// ParseCommand returns nil for text that is not a command.
func ParseCommand(m *ChatMessage) *ChatCommand {
	if m == nil {
		return nil
	}

	text := strings.TrimSpace(m.Text)
	if len(text) < 2 || text[0] != CommandPrefix {
		return nil
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return nil
	}

	return &ChatCommand{
		Name:    strings.ToLower(fields[0]),
		Args:    fields[1:],
		User:    m.Chatter(),
		Message: m,
	}
}
