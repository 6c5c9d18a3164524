// Package hub owns the single realtime channel. Every connected client
// receives every envelope; per-user filtering happens on the receiving side.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mesmerism/api/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	sendBufferSize = 256
)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint

	mu     sync.Mutex
	closed bool
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			zap.L().Info("realtime client registered",
				zap.Uint("user_id", client.userID),
				zap.Int("clients", h.Size()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.mu.Lock()
				if !client.closed {
					close(client.send)
					client.closed = true
				}
				client.mu.Unlock()
			}
			h.mu.Unlock()
			zap.L().Info("realtime client unregistered",
				zap.Uint("user_id", client.userID),
				zap.Int("clients", h.Size()))
		}
	}
}

func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastEvent fans a named broadcast event out to every connected client.
// Slow clients drop the message rather than backpressure the caller.
func (h *Hub) BroadcastEvent(event domain.EventType, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("failed to marshal broadcast payload",
			zap.String("event", string(event)), zap.Error(err))
		return
	}

	h.fanOut(domain.Envelope{
		Type:    domain.EnvelopeBroadcast,
		Event:   event,
		Payload: raw,
	})
}

// BroadcastRowChange fans a table row image out to every connected client.
func (h *Hub) BroadcastRowChange(table, action string, record any) {
	raw, err := json.Marshal(record)
	if err != nil {
		zap.L().Error("failed to marshal row-change record",
			zap.String("table", table), zap.Error(err))
		return
	}

	h.fanOut(domain.Envelope{
		Type:   domain.EnvelopeRowChange,
		Table:  table,
		Action: action,
		Record: raw,
	})
}

func (h *Hub) fanOut(env domain.Envelope) {
	message, err := json.Marshal(env)
	if err != nil {
		zap.L().Error("failed to marshal envelope", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
			// Buffer full; drop for this client only.
		}
		client.mu.Unlock()
	}
}

// ServeClient registers the upgraded connection and starts its pumps. It
// returns immediately; the pumps run until the peer disconnects.
func (h *Hub) ServeClient(conn *websocket.Conn, userID uint) {
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// The channel is server-push only; inbound frames are drained
		// and discarded.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("realtime client read error",
					zap.Uint("user_id", c.userID), zap.Error(err))
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush anything queued behind this message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
