package ws

import (
	"fmt"
	"sync"

	"github.com/cwrk-planet/voice-signal/internal/domain"
	"github.com/cwrk-planet/voice-signal/internal/protocol"
)

// Hub is the table of live sockets. It is the outbound side the dispatcher
// talks to.
type Hub struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*wsConn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[domain.ConnID]*wsConn)}
}

func (h *Hub) Add(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

func (h *Hub) Remove(id domain.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

func (h *Hub) get(id domain.ConnID) (*wsConn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

// Send encodes msg and queues it for id. It never waits for the socket.
func (h *Hub) Send(id domain.ConnID, msg protocol.Message) error {
	c, ok := h.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownConn, id)
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	return c.enqueue(data)
}

// Close flushes the queue of id and closes the socket. The read loop then
// reports the disconnect as usual.
func (h *Hub) Close(id domain.ConnID) error {
	c, ok := h.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownConn, id)
	}
	c.shutdown()
	return nil
}

// CloseAll closes every live socket, used on server shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		c.shutdown()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
