package chat

import (
	"log/slog"
	"metacity/internal/app/adapters/metrics"
	"metacity/internal/app/domain/message"
	"metacity/internal/app/ports"
)

// OnChatEvent is called from the connection's goroutines; events are queued in arrival order.
func (s *Session) OnChatEvent(ev ports.ChatEvent) {
	s.post(func() { s.handleChatEvent(ev) })
}

func (s *Session) handleChatEvent(ev ports.ChatEvent) {
	metrics.ChatState.Set(float64(s.chat.State()))

	switch ev.Type {
	case ports.ChatConnected:
		s.authRetried = false
		s.publish(ports.Event{
			Type:    ports.EventChatConnected,
			Title:   "💬 Chat Connected",
			Message: "Connected to Twitch chat. Viewers can now vote!",
		})

	case ports.ChatDisconnected:
		metrics.ChatReconnects.Inc()
		s.publish(ports.Event{
			Type:    ports.EventChatDisconnected,
			Title:   "⚠️ Chat Disconnected",
			Message: "Twitch chat connection lost. Attempting to reconnect...",
		})

	case ports.ChatReconnectFailed:
		s.publish(ports.Event{
			Type:    ports.EventReconnectFailed,
			Title:   "❌ Chat Unavailable",
			Message: "Could not reconnect to Twitch chat. Join the channel again to retry.",
		})

	case ports.ChatAuthFailed:
		s.onChatAuthFailed(ev.Err)

	case ports.ChatMessage:
		if ev.Message != nil {
			s.handleMessage(ev.Message)
		}
	}
}

func (s *Session) handleMessage(msg *message.ChatMessage) {
	s.messages.Push(msg.Channel, msg)
	if s.streaming {
		s.recap.AddMessage(msg.Username)
	}
	metrics.ChatMessages.WithLabelValues(msg.Channel).Inc()
	s.publish(ports.Event{Type: ports.EventChatMessage, Data: msg})

	cmd := message.ParseCommand(msg)
	if cmd == nil {
		return
	}

	s.log.Debug("Chat command", slog.String("cmd", cmd.Name), slog.String("user", cmd.User.Username))
	s.commands.Push(msg.Channel, cmd)
	if s.streaming {
		s.recap.AddCommand(cmd.Name)
	}
	s.publish(ports.Event{Type: ports.EventChatCommand, Data: cmd})
	s.dispatcher.Dispatch(cmd)
}
