// Package telemetry streams decision events to websocket clients so a
// viewer can watch the simulation live.
package telemetry

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tickwise/cortex/internal/events"
)

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 256
	maxMessageSize = 512
)

// client is one connected websocket viewer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts decision events to all connected clients. Slow clients
// are disconnected rather than allowed to apply backpressure.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run consumes events from the bus until the channel closes. Call it on
// its own goroutine with a channel from LocalBus.Subscribe.
func (h *Hub) Run(ch <-chan events.DecisionEvent) {
	for ev := range ch {
		h.Broadcast(ev)
	}
}

// Broadcast sends one event to every connected client.
func (h *Hub) Broadcast(ev events.DecisionEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("telemetry: failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	stale := make([]*client, 0)
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.drop(c)
	}
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handle upgrades an HTTP request to a websocket and streams events to
// it until the client disconnects.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("telemetry: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

// writeLoop drains the client's send channel onto the wire.
func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

// readLoop discards inbound frames; it exists to detect disconnects.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

// drop removes a client and closes its send channel exactly once.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if ok {
		close(c.send)
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.send)
	}
}
