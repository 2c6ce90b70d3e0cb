package registry

import (
	"sort"
	"sync"

	"github.com/cwrk-planet/voice-signal/internal/domain"
)

// Directory maps a room to its member connections. A room exists only while
// it has at least one member.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[domain.ConnID]struct{} // roomID -> set of connections
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomID]map[domain.ConnID]struct{})}
}

// Join adds the connection, creating the room if needed. Re-adding a member is a no-op.
func (d *Directory) Join(room domain.RoomID, conn domain.ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rs, ok := d.rooms[room]
	if !ok {
		rs = make(map[domain.ConnID]struct{})
		d.rooms[room] = rs
	}
	rs[conn] = struct{}{}
}

// Leave removes the connection and returns how many members remain.
func (d *Directory) Leave(room domain.RoomID, conn domain.ConnID) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	rs, ok := d.rooms[room]
	if !ok {
		return 0
	}
	delete(rs, conn)
	if len(rs) == 0 {
		delete(d.rooms, room)
		return 0
	}
	return len(rs)
}

// Members returns a snapshot of the member set ordered by connection id.
// Unknown rooms yield an empty slice.
func (d *Directory) Members(room domain.RoomID) []domain.ConnID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rs := d.rooms[room]
	out := make([]domain.ConnID, 0, len(rs))
	for c := range rs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of live rooms.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// Rooms lists live rooms with member counts, ordered by room id.
func (d *Directory) Rooms() []domain.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.RoomInfo, 0, len(d.rooms))
	for id, rs := range d.rooms {
		out = append(out, domain.RoomInfo{ID: id, Members: len(rs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
