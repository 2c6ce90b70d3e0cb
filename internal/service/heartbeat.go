package service

import (
	"github.com/cwrk-planet/voice-signal/internal/domain"
	"github.com/cwrk-planet/voice-signal/internal/protocol"
)

// ping answers on the same connection. There is no server side probing.
func (d *Dispatcher) ping(conn domain.ConnID) {
	d.send(conn, protocol.Message{Type: protocol.TypePong})
}
