package registry

import (
	"sync"

	"github.com/cwrk-planet/voice-signal/internal/domain"
)

// Seats is the optional server-side seat table: room -> seat number -> holder.
type Seats struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]map[int]domain.ConnID
}

func NewSeats() *Seats {
	return &Seats{rooms: make(map[domain.RoomID]map[int]domain.ConnID)}
}

// Claim gives seat to conn. A connection holds at most one seat per room,
// so a previous seat of conn in the same room is released.
func (s *Seats) Claim(room domain.RoomID, seat int, conn domain.ConnID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[room]
	if !ok {
		rs = make(map[int]domain.ConnID)
		s.rooms[room] = rs
	}
	if holder, taken := rs[seat]; taken {
		if holder == conn {
			return nil
		}
		return domain.ErrSeatTaken
	}
	for n, holder := range rs {
		if holder == conn {
			delete(rs, n)
		}
	}
	rs[seat] = conn
	return nil
}

// Release frees seat if conn holds it.
func (s *Seats) Release(room domain.RoomID, seat int, conn domain.ConnID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs := s.rooms[room]
	holder, ok := rs[seat]
	if !ok {
		return nil
	}
	if holder != conn {
		return domain.ErrNotSeatHolder
	}
	delete(rs, seat)
	if len(rs) == 0 {
		delete(s.rooms, room)
	}
	return nil
}

// ReleaseAll frees every seat conn holds in room and reports whether any was held.
func (s *Seats) ReleaseAll(room domain.RoomID, conn domain.ConnID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs := s.rooms[room]
	released := false
	for n, holder := range rs {
		if holder == conn {
			delete(rs, n)
			released = true
		}
	}
	if rs != nil && len(rs) == 0 {
		delete(s.rooms, room)
	}
	return released
}

// Occupied returns a copy of the seat map of room.
func (s *Seats) Occupied(room domain.RoomID) map[int]domain.ConnID {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]domain.ConnID, len(s.rooms[room]))
	for n, c := range s.rooms[room] {
		out[n] = c
	}
	return out
}
