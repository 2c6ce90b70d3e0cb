package registry

import (
	"sync"

	"github.com/cwrk-planet/voice-signal/internal/domain"
)

// Registry tracks who is online, as whom and where.
// connection -> session, user id -> connection.
type Registry struct {
	mu     sync.RWMutex
	byConn map[domain.ConnID]domain.UserSession
	byUser map[domain.UserID]domain.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[domain.ConnID]domain.UserSession),
		byUser: make(map[domain.UserID]domain.ConnID),
	}
}

// Bind records the identity for s.ConnID. When the user id was bound to a
// different connection the old binding is overwritten and its connection id
// is returned with superseded=true. The superseded connection keeps its own
// byConn entry; the caller decides what happens to it.
func (r *Registry) Bind(s domain.UserSession) (prev domain.ConnID, superseded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// connection rebinding under a new user id drops the stale user index
	if old, ok := r.byConn[s.ConnID]; ok && old.UserID != s.UserID {
		if r.byUser[old.UserID] == s.ConnID {
			delete(r.byUser, old.UserID)
		}
	}

	if c, ok := r.byUser[s.UserID]; ok && c != s.ConnID {
		prev, superseded = c, true
	}

	r.byConn[s.ConnID] = s
	r.byUser[s.UserID] = s.ConnID

	return prev, superseded
}

func (r *Registry) LookupByConnection(id domain.ConnID) (domain.UserSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byConn[id]
	return s, ok
}

func (r *Registry) LookupByUser(id domain.UserID) (domain.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byUser[id]
	return c, ok
}

// Unbind removes every entry for the connection. The user index is only
// cleared when it still points at this connection, so unbinding a superseded
// connection never detaches the user's current one.
func (r *Registry) Unbind(id domain.ConnID) (domain.UserSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byConn[id]
	if !ok {
		return domain.UserSession{}, false
	}
	delete(r.byConn, id)
	if r.byUser[s.UserID] == id {
		delete(r.byUser, s.UserID)
	}

	return s, true
}

// Sessions resolves the bound identities of ids, skipping unbound ones and
// keeping the input order.
func (r *Registry) Sessions(ids []domain.ConnID) []domain.UserSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.UserSession, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.byConn[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of bound connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
