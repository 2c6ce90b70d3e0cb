package registry

import (
	"testing"

	"github.com/cwrk-planet/voice-signal/internal/domain"

	"github.com/google/go-cmp/cmp"
)

func session(conn, user, room string) domain.UserSession {
	return domain.UserSession{
		UserID:   domain.UserID(user),
		Username: user + "-name",
		Avatar:   user + ".png",
		RoomID:   domain.RoomID(room),
		ConnID:   domain.ConnID(conn),
	}
}

func TestRegistry_BindLookup(t *testing.T) {
	r := NewRegistry()
	s := session("c1", "u1", "r1")

	if _, superseded := r.Bind(s); superseded {
		t.Fatalf("first bind must not supersede")
	}

	got, ok := r.LookupByConnection("c1")
	if !ok {
		t.Fatalf("LookupByConnection: missing session")
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	conn, ok := r.LookupByUser("u1")
	if !ok || conn != "c1" {
		t.Fatalf("LookupByUser: want c1, got %q ok=%t", conn, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("Len: want 1, got %d", r.Len())
	}
}

func TestRegistry_RebindSupersedes(t *testing.T) {
	r := NewRegistry()
	r.Bind(session("c1", "u1", "r1"))

	prev, superseded := r.Bind(session("c2", "u1", "r1"))
	if !superseded || prev != "c1" {
		t.Fatalf("want superseded c1, got %q %t", prev, superseded)
	}
	if conn, _ := r.LookupByUser("u1"); conn != "c2" {
		t.Fatalf("user should resolve to c2, got %q", conn)
	}

	// unbinding the orphan keeps the live binding
	if _, ok := r.Unbind("c1"); !ok {
		t.Fatalf("Unbind c1: expected session")
	}
	if conn, ok := r.LookupByUser("u1"); !ok || conn != "c2" {
		t.Fatalf("user binding lost after orphan unbind: %q %t", conn, ok)
	}
}

func TestRegistry_SameConnNewUser(t *testing.T) {
	r := NewRegistry()
	r.Bind(session("c1", "u1", "r1"))
	r.Bind(session("c1", "u2", "r1"))

	if _, ok := r.LookupByUser("u1"); ok {
		t.Fatalf("stale user index for u1 must be dropped")
	}
	if conn, ok := r.LookupByUser("u2"); !ok || conn != "c1" {
		t.Fatalf("u2 should resolve to c1, got %q %t", conn, ok)
	}
}

func TestRegistry_Unbind(t *testing.T) {
	r := NewRegistry()
	s := session("c1", "u1", "r1")
	r.Bind(s)

	got, ok := r.Unbind("c1")
	if !ok {
		t.Fatalf("Unbind: expected session")
	}
	if got.UserID != "u1" || got.Username != "u1-name" {
		t.Fatalf("Unbind returned wrong identity: %+v", got)
	}
	if _, ok := r.LookupByConnection("c1"); ok {
		t.Fatalf("connection still bound")
	}
	if _, ok := r.LookupByUser("u1"); ok {
		t.Fatalf("user still bound")
	}
	if _, ok := r.Unbind("c1"); ok {
		t.Fatalf("second Unbind must report absent")
	}
	if _, ok := r.Unbind("never-joined"); ok {
		t.Fatalf("Unbind of unknown connection must report absent")
	}
}

func TestRegistry_Sessions(t *testing.T) {
	r := NewRegistry()
	a := session("a", "u1", "r1")
	b := session("b", "u2", "r1")
	r.Bind(a)
	r.Bind(b)

	got := r.Sessions([]domain.ConnID{"b", "ghost", "a"})
	want := []domain.UserSession{b, a}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Sessions mismatch (-want +got):\n%s", diff)
	}
}
