package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"log/slog"
	"metacity/internal/app/ports"
	"time"
)

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Events streams session events to one dashboard client, starting with a snapshot.
func (h *Handlers) Events(c *gin.Context) {
	snap, err := h.session.Snapshot()
	if err != nil {
		h.fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	events := make(chan ports.Event, eventBuffer)
	unsubscribe := h.session.Subscribe(func(ev ports.Event) {
		select {
		case events <- ev:
		default:
			h.log.Debug("Dashboard client too slow, event dropped", slog.String("type", string(ev.Type)))
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeJSON(conn, ports.Event{Type: "snapshot", Time: time.Now(), Data: snap}); err != nil {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case ev := <-events:
			if err := writeJSON(conn, ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
