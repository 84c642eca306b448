package ws

import (
	"sync"

	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// Hub maps connection ids to live clients and delivers the notifications
// the signaling core produces. It knows nothing about rooms or roles.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID()] = c
	log.Info().Str("conn_id", c.ID()).Msg("Client registered")
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[connID]; ok {
		delete(h.clients, connID)
		c.close()
		log.Info().Str("conn_id", connID).Msg("Client unregistered")
	}
}

// Deliver queues each notification on its target connection. A missing or
// saturated target is dropped with a warning; the sender is long past this
// point and the target's own recovery handles the gap.
func (h *Hub) Deliver(notifs []domain.Notification) {
	if len(notifs) == 0 {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, n := range notifs {
		c, ok := h.clients[n.ConnID]
		if !ok {
			log.Warn().Str("conn_id", n.ConnID).Str("type", string(n.Message.Type)).
				Msg("Dropping notification for unknown connection")
			continue
		}
		if !c.enqueue(n.Message) {
			log.Warn().Str("conn_id", n.ConnID).Str("type", string(n.Message.Type)).
				Msg("Send buffer full, dropping notification")
		}
	}
}

// Stop closes every client; used on shutdown.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}
