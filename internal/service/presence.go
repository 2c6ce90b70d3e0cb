package service

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/cwrk-planet/voice-signal/internal/domain"
	"github.com/cwrk-planet/voice-signal/internal/protocol"
)

func (d *Dispatcher) join(conn domain.ConnID, e *protocol.JoinRoom) {
	room := domain.RoomID(strings.TrimSpace(e.RoomID))
	user := domain.UserID(strings.TrimSpace(e.UserID))

	cur, bound := d.reg.LookupByConnection(conn)
	rejoin := bound && cur.RoomID == room && cur.UserID == user

	if d.opts.LoginPolicy == LoginReject {
		if other, ok := d.reg.LookupByUser(user); ok && other != conn {
			slog.Info("join rejected: duplicate login", "conn", conn, "user", user, "bound_conn", other)
			d.replyError(conn, domain.ErrDuplicateLogin)
			return
		}
	}

	// a user sits in exactly one room; switching rooms or identity leaves the old one first
	if bound && !rejoin {
		d.reg.Unbind(conn)
		d.depart(cur)
	}

	joinedAt := d.opts.Now()
	if rejoin {
		joinedAt = cur.JoinedAt
	}
	prev, superseded := d.reg.Bind(domain.UserSession{
		UserID:   user,
		Username: e.Username,
		Avatar:   e.Avatar,
		RoomID:   room,
		ConnID:   conn,
		JoinedAt: joinedAt,
	})
	if superseded {
		// the older connection still sits in its room; it leaves before conn joins
		d.evict(prev)
	}
	d.dir.Join(room, conn)

	d.send(conn, protocol.Message{Type: protocol.TypeRoomUsers, Payload: d.roomUsers(room, conn)})

	if rejoin {
		slog.Debug("user refreshed room state", "conn", conn, "user", user, "room", room)
		return
	}

	d.broadcast(room, protocol.Message{
		Type: protocol.TypeUserJoined,
		Payload: protocol.UserJoined{
			UserID:   string(user),
			Username: e.Username,
			Avatar:   e.Avatar,
			ConnID:   string(conn),
		},
	}, conn)
	slog.Info("user joined", "conn", conn, "user", user, "room", room, "members", len(d.dir.Members(room)))
}

// roomUsers lists the members of room other than self, ordered by connection id.
func (d *Dispatcher) roomUsers(room domain.RoomID, self domain.ConnID) []protocol.RoomUser {
	others := make([]domain.ConnID, 0)
	for _, m := range d.dir.Members(room) {
		if m != self {
			others = append(others, m)
		}
	}

	var seatOf map[domain.ConnID]int
	if d.opts.AuthoritativeSeats {
		occupied := d.seats.Occupied(room)
		seatOf = make(map[domain.ConnID]int, len(occupied))
		for n, c := range occupied {
			seatOf[c] = n
		}
	}

	users := make([]protocol.RoomUser, 0, len(others))
	for _, s := range d.reg.Sessions(others) {
		u := protocol.RoomUser{
			UserID:   string(s.UserID),
			Username: s.Username,
			Avatar:   s.Avatar,
			RoomID:   string(s.RoomID),
			ConnID:   string(s.ConnID),
		}
		if n, ok := seatOf[s.ConnID]; ok {
			u.SeatNumber = &n
		}
		users = append(users, u)
	}
	return users
}

// evict detaches an older connection of a user that logged in again.
func (d *Dispatcher) evict(conn domain.ConnID) {
	sess, ok := d.reg.Unbind(conn)
	if !ok {
		return
	}
	d.depart(sess)
	d.stats.Evictions.Add(1)

	d.send(conn, protocol.Message{
		Type:    protocol.TypeSessionReplaced,
		Payload: protocol.SessionReplaced{UserID: string(sess.UserID)},
	})
	if err := d.out.Close(conn); err != nil {
		slog.Debug("close evicted connection failed", "conn", conn, "err", err)
	}
	slog.Info("session replaced", "user", sess.UserID, "old_conn", conn, "room", sess.RoomID)
}

func (d *Dispatcher) disconnect(conn domain.ConnID) {
	sess, ok := d.reg.Unbind(conn)
	if !ok {
		slog.Debug("ws disconnected before join", "conn", conn)
		return
	}
	d.depart(sess)
	slog.Info("user left", "conn", conn, "user", sess.UserID, "room", sess.RoomID)
}

// depart removes an already unbound session from its room and tells the
// remaining members.
func (d *Dispatcher) depart(sess domain.UserSession) {
	remaining := d.dir.Leave(sess.RoomID, sess.ConnID)
	if d.seats.ReleaseAll(sess.RoomID, sess.ConnID) {
		slog.Debug("seat released on leave", "conn", sess.ConnID, "room", sess.RoomID)
	}
	if remaining == 0 {
		delete(d.lastChat, sess.RoomID)
		return
	}

	d.broadcast(sess.RoomID, protocol.Message{
		Type:    protocol.TypeUserLeft,
		Payload: protocol.UserLeft{UserID: string(sess.UserID), Username: sess.Username, ConnID: string(sess.ConnID)},
	}, sess.ConnID)
	d.broadcast(sess.RoomID, protocol.Message{
		Type:    protocol.TypeSeatUpdateNeeded,
		Payload: protocol.SeatUpdate{RoomID: string(sess.RoomID)},
	}, sess.ConnID)
}

func (d *Dispatcher) seatChange(conn domain.ConnID, e *protocol.SeatChange) {
	sess, ok := d.sender(conn, e.Kind)
	if !ok {
		return
	}

	if d.opts.AuthoritativeSeats {
		var err error
		switch e.Kind {
		case protocol.TypeSeatTaken:
			err = d.seats.Claim(sess.RoomID, *e.SeatNumber, conn)
		case protocol.TypeLeaveSeat:
			err = d.seats.Release(sess.RoomID, *e.SeatNumber, conn)
		}
		if err != nil {
			if !errors.Is(err, domain.ErrSeatTaken) && !errors.Is(err, domain.ErrNotSeatHolder) {
				slog.Error("seat table", "conn", conn, "room", sess.RoomID, "err", err)
			}
			d.replyError(conn, err)
			return
		}
	}

	seat := *e.SeatNumber
	d.broadcast(sess.RoomID, protocol.Message{
		Type:    protocol.TypeSeatUpdateNeeded,
		Payload: protocol.SeatUpdate{RoomID: string(sess.RoomID), SeatNumber: &seat},
	}, conn)
}

func (d *Dispatcher) talking(conn domain.ConnID, e *protocol.Talking) {
	sess, ok := d.sender(conn, protocol.TypeUserTalking)
	if !ok {
		return
	}

	d.broadcast(sess.RoomID, protocol.Message{
		Type: protocol.TypeUserTalking,
		Payload: protocol.Talking{
			RoomID:     string(sess.RoomID),
			SeatNumber: e.SeatNumber,
			IsTalking:  e.IsTalking,
			UserID:     string(sess.UserID),
		},
	}, conn)
}

// chat goes to every member, sender included, with a server timestamp that
// never goes backwards within a room.
func (d *Dispatcher) chat(conn domain.ConnID, e *protocol.Chat) {
	sess, ok := d.sender(conn, protocol.TypeChatMessage)
	if !ok {
		return
	}

	ts := d.opts.Now()
	if last, ok := d.lastChat[sess.RoomID]; ok && ts.Before(last) {
		ts = last
	}
	d.lastChat[sess.RoomID] = ts

	n := d.broadcast(sess.RoomID, protocol.Message{
		Type: protocol.TypeChatMessage,
		Payload: protocol.ChatOut{
			RoomID:    string(sess.RoomID),
			UserID:    string(sess.UserID),
			Username:  sess.Username,
			Avatar:    sess.Avatar,
			Message:   strings.TrimSpace(e.Message),
			Timestamp: ts,
		},
	}, "")
	d.stats.ChatMessages.Add(1)
	slog.Debug("chat relayed", "room", sess.RoomID, "user", sess.UserID, "deliveries", n)
}
