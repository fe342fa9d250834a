package ws

import (
	"encoding/json"
	"sync"

	"healthloop/internal/logger"
	"healthloop/internal/metrics"
	"healthloop/internal/service"
)

// Hub fans loyalty events out to every open connection of a user.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

var _ service.EventPublisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	metrics.WSConnections.Inc()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.Send)
	metrics.WSConnections.Dec()
}

// Publish never blocks: a client whose buffer is full misses the event.
func (h *Hub) Publish(userID int64, ev service.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients[userID]
	if len(set) == 0 {
		return
	}

	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("ws: marshal event", "type", ev.Type, "error", err)
		return
	}
	for c := range set {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws: dropping event for slow client", "user_id", userID, "type", ev.Type)
		}
	}
}

// Connections returns the number of open connections for a user.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
