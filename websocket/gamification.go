package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"terrainhub/models"
)

// writeWait bounds a single write so a stalled client cannot hold up Notify.
const writeWait = 5 * time.Second

// GamificationClient represents a client connected for gamification updates
type GamificationClient struct {
	Conn      *websocket.Conn
	UserID    string
	writeMu   sync.Mutex
	writeWait time.Duration
}

// SafeWriteJSON safely writes JSON data to the gamification client's WebSocket connection
func (gc *GamificationClient) SafeWriteJSON(v interface{}) error {
	gc.writeMu.Lock()
	defer gc.writeMu.Unlock()
	wait := gc.writeWait
	if wait == 0 {
		wait = writeWait
	}
	if err := gc.Conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return gc.Conn.WriteJSON(v)
}

// Hub fans gamification events out to connected clients. Personal events go
// to the user's own connections; hidden content is announced to everyone.
type Hub struct {
	mu      sync.RWMutex
	clients map[*GamificationClient]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*GamificationClient]bool)}
}

// Register registers a client for gamification updates
func (h *Hub) Register(client *GamificationClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	slog.Debug("gamification client registered", "user", client.UserID, "clients", len(h.clients))
}

// Unregister removes a client and closes its connection. It is safe to call twice.
func (h *Hub) Unregister(client *GamificationClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		client.Conn.Close()
		slog.Debug("gamification client unregistered", "user", client.UserID, "clients", n)
	}
}

// Notify implements services.Notifier.
func (h *Hub) Notify(event models.GamificationEvent) {
	broadcast := event.UserID == "" || event.Type == models.EventContentHidden

	h.mu.RLock()
	targets := make([]*GamificationClient, 0, len(h.clients))
	for client := range h.clients {
		if broadcast || client.UserID == event.UserID {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.SafeWriteJSON(event); err != nil {
			slog.Warn("dropping gamification client", "user", client.UserID, "error", err)
			h.Unregister(client)
		}
	}
}

// Count returns the number of connected gamification clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
