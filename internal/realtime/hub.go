package realtime

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/gorilla/websocket"
)

const maxTotalConns = 2000

var (
	ErrTooManyConnections = errors.New("server connection limit reached")
	ErrHubClosed          = errors.New("realtime hub is shut down")
)

// Hub tracks the websocket clients of this instance.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a subscriber for tables. conn may be nil in tests.
func (h *Hub) Register(conn *websocket.Conn, userID string, tables map[Table]bool) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, ErrTooManyConnections
	}

	c := &Client{
		hub:    h,
		conn:   conn,
		tables: tables,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
	h.clients[c] = struct{}{}
	observability.RealtimeConnections.Inc()
	return c, nil
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		observability.RealtimeConnections.Dec()
	}
}

// Dispatch forwards ev to every local client subscribed to its table.
func (h *Hub) Dispatch(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.wants(ev.Table) {
			c.trySend(data)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client's send channel; WritePump then sends a close frame.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
		observability.RealtimeConnections.Dec()
	}
}
