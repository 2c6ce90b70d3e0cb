package service

import (
	"log/slog"
	"strings"

	"github.com/cwrk-planet/voice-signal/internal/domain"
	"github.com/cwrk-planet/voice-signal/internal/protocol"
)

// relayToUser forwards offer/answer/ice-candidate to the connection bound to
// target. Unknown targets are dropped without telling the sender.
func (d *Dispatcher) relayToUser(conn domain.ConnID, typ, target string, build func(from domain.UserID) any) {
	from, ok := d.sender(conn, typ)
	if !ok {
		return
	}

	to, ok := d.reg.LookupByUser(domain.UserID(strings.TrimSpace(target)))
	if !ok {
		d.stats.DroppedSignals.Add(1)
		slog.Debug("signal target offline", "type", typ, "from", from.UserID, "target", target)
		return
	}

	d.send(to, protocol.Message{Type: typ, Payload: build(from.UserID)})
}

// relayToConn forwards a connection-addressed signal, tagging it with the
// sender's connection id. Both ends must be joined to the same room; any other
// target is dropped without telling the sender.
func (d *Dispatcher) relayToConn(conn domain.ConnID, s *protocol.Signal) {
	from, ok := d.sender(conn, protocol.TypeSignal)
	if !ok {
		return
	}

	target := domain.ConnID(strings.TrimSpace(s.Target))
	to, ok := d.reg.LookupByConnection(target)
	if !ok || to.RoomID != from.RoomID {
		d.stats.DroppedSignals.Add(1)
		slog.Debug("signal target not in room", "type", s.Kind, "from", conn, "target", target, "room", from.RoomID)
		return
	}

	d.send(target, protocol.Message{
		Type: protocol.TypeSignal,
		Payload: protocol.RelayedSignal{
			From:      string(conn),
			Target:    string(target),
			Kind:      s.Kind,
			SDP:       s.SDP,
			Candidate: s.Candidate,
		},
	})
}
