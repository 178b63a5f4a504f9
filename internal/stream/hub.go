// Package stream broadcasts world snapshots to websocket clients.
package stream

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// client serializes the writes on one connection
type client struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *client) close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.conn.Close()
}

// Hub keeps the connected clients and sends them every broadcast snapshot
type Hub struct {
	Logger *slog.Logger

	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*client]struct{}
	closed   bool
}

// NewHub creates a hub accepting connections from any origin
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		Logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and registers the client.
// It returns once the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn}
	if !h.register(c) {
		_ = c.close()
		return
	}
	defer h.unregister(c)

	h.Logger.Info("stream client connected", "remote", conn.RemoteAddr().String())

	// Clients never send anything meaningful, reading only detects the disconnection
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.Debug("stream client read failed", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		_ = c.close()
		h.Logger.Info("stream client disconnected", "remote", c.conn.RemoteAddr().String())
	}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast writes the snapshot to every client. Clients failing the write are dropped,
// their errors are joined in the returned error.
func (h *Hub) Broadcast(snapshot Snapshot) error {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var errs []error
	for _, c := range clients {
		if err := c.writeJSON(snapshot); err != nil {
			errs = append(errs, err)
			h.unregister(c)
		}
	}

	return errors.Join(errs...)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	var errs []error
	for c := range clients {
		if err := c.close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
