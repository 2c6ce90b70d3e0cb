package registry

import (
	"errors"
	"testing"

	"github.com/cwrk-planet/voice-signal/internal/domain"

	"github.com/google/go-cmp/cmp"
)

func TestSeats_ClaimConflict(t *testing.T) {
	s := NewSeats()
	if err := s.Claim("r1", 1, "c1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := s.Claim("r1", 1, "c1"); err != nil {
		t.Fatalf("re-claim own seat: %v", err)
	}
	if err := s.Claim("r1", 1, "c2"); !errors.Is(err, domain.ErrSeatTaken) {
		t.Fatalf("want ErrSeatTaken, got %v", err)
	}
	// same seat number in another room is independent
	if err := s.Claim("r2", 1, "c2"); err != nil {
		t.Fatalf("Claim other room: %v", err)
	}
}

func TestSeats_OneSeatPerConnection(t *testing.T) {
	s := NewSeats()
	_ = s.Claim("r1", 1, "c1")
	_ = s.Claim("r1", 4, "c1")

	want := map[int]domain.ConnID{4: "c1"}
	if diff := cmp.Diff(want, s.Occupied("r1")); diff != "" {
		t.Fatalf("Occupied mismatch (-want +got):\n%s", diff)
	}
}

func TestSeats_Release(t *testing.T) {
	s := NewSeats()
	_ = s.Claim("r1", 2, "c1")

	if err := s.Release("r1", 2, "c2"); !errors.Is(err, domain.ErrNotSeatHolder) {
		t.Fatalf("want ErrNotSeatHolder, got %v", err)
	}
	if err := s.Release("r1", 2, "c1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := s.Release("r1", 2, "c1"); err != nil {
		t.Fatalf("Release of free seat: %v", err)
	}
	if len(s.Occupied("r1")) != 0 {
		t.Fatalf("seat still occupied")
	}
}

func TestSeats_ReleaseAll(t *testing.T) {
	s := NewSeats()
	_ = s.Claim("r1", 1, "c1")
	_ = s.Claim("r1", 2, "c2")

	if !s.ReleaseAll("r1", "c1") {
		t.Fatalf("ReleaseAll: expected a released seat")
	}
	if s.ReleaseAll("r1", "c1") {
		t.Fatalf("ReleaseAll twice must report nothing released")
	}
	want := map[int]domain.ConnID{2: "c2"}
	if diff := cmp.Diff(want, s.Occupied("r1")); diff != "" {
		t.Fatalf("Occupied mismatch (-want +got):\n%s", diff)
	}
}
