package irc

import (
	"context"
	"fmt"
	"github.com/gorilla/websocket"
	"net/http"
	"time"
)

// Transport carries protocol text; one inbound frame may hold several lines.
type Transport interface {
	ReadMessage() (string, error)
	WriteMessage(line string) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

type WebsocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer reuses the HTTP client's dialer so a configured proxy applies to chat too.
func NewWebsocketDialer(client *http.Client) *WebsocketDialer {
	d := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	if client != nil {
		if tr, ok := client.Transport.(*http.Transport); ok && tr.DialContext != nil {
			d.NetDialContext = tr.DialContext
		}
	}
	return &WebsocketDialer{dialer: d}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Transport, error) {
	ws, resp, err := d.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &websocketTransport{ws: ws}, nil
}

type websocketTransport struct {
	ws *websocket.Conn
}

func (t *websocketTransport) ReadMessage() (string, error) {
	_, data, err := t.ws.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *websocketTransport) WriteMessage(line string) error {
	return t.ws.WriteMessage(websocket.TextMessage, []byte(line+"\r\n"))
}

func (t *websocketTransport) Close() error {
	return t.ws.Close()
}
