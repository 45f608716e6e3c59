// Package websocket implements the UI push feed: a one-way broadcast of
// waterfall snapshots to connected browser clients, adapted from the
// teacher's connection-manager pattern but stripped of its room routing
// and PHP-worker forwarding, which have no counterpart here.
package websocket

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket connection.
type Client struct {
	ID         string
	Conn       *websocket.Conn
	RemoteAddr string
	mu         sync.Mutex
}

// Send writes a single binary message to this client.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.BinaryMessage, data)
}

// Manager tracks connected clients and broadcasts to all of them.
type Manager struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewManager creates an empty connection manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// AddConnection registers a new WebSocket connection.
func (m *Manager) AddConnection(conn *websocket.Conn, r *http.Request) *Client {
	client := &Client{
		ID:         uuid.NewString(),
		Conn:       conn,
		RemoteAddr: r.RemoteAddr,
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	m.mu.Unlock()

	return client
}

// RemoveConnection unregisters a WebSocket connection.
func (m *Manager) RemoveConnection(id string) {
	m.mu.Lock()
	delete(m.clients, id)
	m.mu.Unlock()
}

// Broadcast sends data to every connected client. A client whose send fails
// is logged and skipped rather than blocking the rest.
func (m *Manager) Broadcast(data []byte) {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(data); err != nil {
			m.logger.Warn("push feed: broadcast send failed", "conn_id", c.ID, "error", err)
		}
	}
}

// Stats reports the current connection count.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ManagerStats{TotalConnections: len(m.clients)}
}

// ManagerStats holds push-feed connection metrics.
type ManagerStats struct {
	TotalConnections int `json:"total_connections"`
}
