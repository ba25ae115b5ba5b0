package socket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// MenuEvent is broadcast to every connected dashboard whenever a menu
// changes, so open dashboards refresh without polling.
type MenuEvent struct {
	Event  string `json:"event"`
	MenuID string `json:"menuID"`
	Status string `json:"status,omitempty"`
}

// Hub tracks all connected dashboard clients.
type Hub struct {
	clients map[string]*websocket.Conn
	mu      sync.RWMutex
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		logger:  logger,
	}
}

// Register adds a client connection keyed by its session id.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[sessionID] = conn
	h.logger.Debug().Str("session", sessionID).Msg("websocket client registered")
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[sessionID]; ok {
		delete(h.clients, sessionID)
		h.logger.Debug().Str("session", sessionID).Msg("websocket client unregistered")
	}
}

// Broadcast sends the event to every connected dashboard. A failed client
// write is logged and skipped; a stale connection is not worth failing the
// operation that triggered the event.
func (h *Hub) Broadcast(event MenuEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode menu event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sessionID, conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Warn().Err(err).Str("session", sessionID).Msg("failed to push menu event")
		}
	}
}
