package ports

import (
	"fmt"
	"metacity/internal/app/domain/message"
)

type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Reconnecting
	LoggedOut
)

var connStateNames = map[ConnState]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Connected:    "connected",
	Reconnecting: "reconnecting",
	LoggedOut:    "logged_out",
}

func (s ConnState) String() string {
	return connStateNames[s]
}

func (s ConnState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ConnState) UnmarshalText(b []byte) error {
	for state, name := range connStateNames {
		if name == string(b) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown connection state %q", b)
}

type ChatEventType int

const (
	ChatConnected ChatEventType = iota
	ChatDisconnected
	ChatReconnectFailed
	ChatAuthFailed
	ChatMessage
)

type ChatEvent struct {
	Type    ChatEventType
	Message *message.ChatMessage
	Err     error
}

type ChatListener interface {
	OnChatEvent(ev ChatEvent)
}

// ChatPort is the only writer to the chat socket.
type ChatPort interface {
	SetCredentials(login, token string)
	Connect()
	JoinChannel(channel string)
	LeaveChannel(channel string)
	Send(channel, text string) bool
	Disconnect()
	Logout()
	State() ConnState
}

// ReplyPort sends a line into the channel the session is attached to.
type ReplyPort interface {
	Say(text string)
}

// AnswerType is a command's chat response; IsReply mentions the caller.
type AnswerType struct {
	Text    []string
	IsReply bool
}
