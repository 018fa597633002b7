// Package ws pushes server events to connected WebSocket clients.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//
//	// in a handler, after authentication:
//	ws.Upgrade(w, r, hub, user.ID)
//
//	// anywhere:
//	hub.SendToUser(userID, payload)
package ws

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the allow-all origin check.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// readPump only services control frames; clients do not send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "user_id", c.userID, "error", err)
			}
			return
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
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type directMessage struct {
	userID string
	data   []byte
}

// Hub tracks connections per user.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	done       chan struct{}
	count      atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the client maps until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					h.drop(c)
				}
			}
			return

		case c := <-h.register:
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			h.count.Add(1)
			metrics.WSConnections.Inc()

		case c := <-h.unregister:
			h.drop(c)

		case m := <-h.direct:
			for c := range h.clients[m.userID] {
				select {
				case c.send <- m.data:
				default:
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	h.count.Add(-1)
	metrics.WSConnections.Dec()
}

// SendToUser queues data for every connection of userID. It reports false
// when the hub is saturated or stopped.
func (h *Hub) SendToUser(userID string, data []byte) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.direct <- directMessage{userID: userID, data: data}:
		return true
	default:
		return false
	}
}

func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// Upgrade switches the request to a WebSocket bound to userID.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{hub: hub, userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case hub.register <- c:
	case <-hub.done:
		conn.Close()
		return nil
	}
	go c.writePump()
	go c.readPump()
	return nil
}
