// Package stream pushes refreshed analyses to WebSocket subscribers. Each
// client gets a bounded send buffer; a client that cannot drain it in time
// is dropped rather than allowed to stall the refresh cycle.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pendlescope/internal/domain/models"
	applogger "pendlescope/pkg/logger"
)

const (
	clientSendBuffer = 8
	writeWait        = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// Hub fans refresh payloads out to connected WebSocket clients.
type Hub struct {
	l        *applogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// refreshPayload is the wire envelope for one push.
type refreshPayload struct {
	Type    string                  `json:"type"`
	At      time.Time               `json:"at"`
	Markets []models.MarketAnalysis `json:"markets"`
}

func NewHub(l *applogger.Logger) *Hub {
	return &Hub{
		l: l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// same open policy as the HTTP API's CORS
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Serve upgrades one HTTP request and keeps the connection registered
// until the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return conn.Close()
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.l.Info("ws client connected", applogger.Int("clients", n))

	go h.writeLoop(c)
	go h.readLoop(c)
	return nil
}

// BroadcastAnalyses serializes the set once and offers it to every
// client without blocking; clients with a full buffer are dropped.
func (h *Hub) BroadcastAnalyses(analyses []models.MarketAnalysis) {
	b, err := json.Marshal(refreshPayload{
		Type:    "refresh",
		At:      time.Now().UTC(),
		Markets: analyses,
	})
	if err != nil {
		h.l.Error("ws payload marshal failed", applogger.Error(err))
		return
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range slow {
		close(c.send)
		h.l.Warn("ws client dropped: send buffer full")
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readLoop discards inbound frames; it exists to notice the peer closing.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if present {
		close(c.send)
	}
	_ = c.conn.Close()
}
