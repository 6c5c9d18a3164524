package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/mesmerism/api/internal/domain"
)

// Conn is one open realtime channel subscription.
type Conn interface {
	// ReadEnvelope blocks until the next pushed envelope or a transport error.
	ReadEnvelope() (domain.Envelope, error)
	Close() error
}

// Transport opens realtime channel connections. The session manager owns at
// most one Conn at a time.
type Transport interface {
	Dial(ctx context.Context, token string) (Conn, error)
}

// WebsocketTransport dials the server's realtime endpoint over websocket.
type WebsocketTransport struct {
	// URL of the realtime endpoint, e.g. wss://host/api/v1/realtime.
	URL string
}

func NewWebsocketTransport(rawURL string) *WebsocketTransport {
	return &WebsocketTransport{
		URL: rawURL,
	}
}

func (t *WebsocketTransport) Dial(ctx context.Context, token string) (Conn, error) {
	u, err := url.Parse(t.URL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime URL -> %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	wsConn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial -> %w", err)
	}

	return &websocketConn{conn: wsConn}, nil
}

type websocketConn struct {
	conn *websocket.Conn
}

func (c *websocketConn) ReadEnvelope() (domain.Envelope, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return domain.Envelope{}, err
	}

	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.Envelope{}, fmt.Errorf("decode envelope -> %w", err)
	}

	return env, nil
}

func (c *websocketConn) Close() error {
	return c.conn.Close()
}
