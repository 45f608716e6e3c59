package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: configurable origin check once a real UI origin exists
	},
}

// Handler upgrades HTTP requests into push-feed connections.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a WebSocket upgrade handler bound to manager.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := h.manager.AddConnection(conn, r)
	h.logger.Debug("websocket connected", "conn_id", client.ID)
	go h.readPump(client)
}

// readPump discards inbound messages; the feed is one-way, so its only job
// is to notice when the client goes away.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.manager.RemoveConnection(client.ID)
		client.Conn.Close()
		h.logger.Debug("websocket disconnected", "conn_id", client.ID)
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "conn_id", client.ID, "error", err)
			}
			return
		}
	}
}
