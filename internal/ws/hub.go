package ws

import (
	"encoding/json"
	"sync"

	"catacomb_backend/internal/logger"
)

// Hub fans leaderboard updates out to connected clients. A client joining
// mid-season immediately receives the last published snapshot.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	last    []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	last := h.last
	h.mu.Unlock()

	if last != nil {
		select {
		case c.Send <- last:
		default:
		}
	}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
	h.mu.Unlock()
}

// BroadcastLeaderboard publishes the entries to every connected client.
// Slow clients are skipped, not waited for.
func (h *Hub) BroadcastLeaderboard(entries any) {
	payload, err := json.Marshal(map[string]any{
		"type":    "leaderboard",
		"entries": entries,
	})
	if err != nil {
		logger.Error("leaderboard payload marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	h.last = payload
	for c := range h.clients {
		select {
		case c.Send <- payload:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
