// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/jason-s-yu/happyfamilies/internal/game"
	"github.com/sirupsen/logrus"
)

// outBufferSize is the number of messages queued per connection before new ones are dropped.
const outBufferSize = 32

// Client is the outbound side of one WebSocket connection. The connection id doubles as
// the player id inside sessions.
type Client struct {
	ID      string
	OutChan chan interface{}
}

// Write queues msg for the write pump without blocking. It reports false when the buffer is full.
func (c *Client) Write(msg interface{}) bool {
	select {
	case c.OutChan <- msg:
		return true
	default:
		return false
	}
}

// WriteError queues an unsolicited error message.
func (c *Client) WriteError(msg string) {
	c.Write(map[string]interface{}{"type": "error", "error": msg})
}

// Hub routes session events to connected clients by player id.
// Send is called while a session holds its lock, so it never blocks.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a client for id, replacing any previous one.
func (h *Hub) Register(id string) *Client {
	c := &Client{ID: id, OutChan: make(chan interface{}, outBufferSize)}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c
}

// Unregister forgets the client for id. The channel is left open; the write pump stops on
// its context instead, so late senders never write to a closed channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// Send delivers ev to playerID if that player is connected.
func (h *Hub) Send(playerID string, ev game.Event) {
	h.mu.RLock()
	c, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if !c.Write(ev) {
		h.logger.WithFields(logrus.Fields{"conn": playerID, "event": ev.Type}).Warn("outbound buffer full, dropping event")
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
