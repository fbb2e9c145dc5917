package freeze

import (
	"testing"

	"github.com/rakunlabs/filterx/internal/filterx/object"
)

func TestFreezeIsIdempotent(t *testing.T) {
	s := New()

	v := object.NewString("hello freeze")
	frozen := s.Freeze(v)
	if !frozen.IsFrozen() {
		t.Fatalf("expected value to be marked frozen")
	}
	if s.Count() != 1 {
		t.Fatalf("expected one entry after first freeze, got %d", s.Count())
	}

	again := s.Freeze(frozen)
	if again != frozen {
		t.Fatalf("expected freeze(freeze(v)) == freeze(v), got a different pointer")
	}
	if s.Count() != 1 {
		t.Fatalf("expected re-freezing an already-frozen value to be a no-op, got %d entries", s.Count())
	}
}

func TestFreezeDedupsEqualContent(t *testing.T) {
	s := New()

	a := s.Freeze(object.NewString("duplicate"))
	b := s.Freeze(object.NewString("duplicate"))

	if a != b {
		t.Fatalf("expected two equal-content values to intern to the same pointer")
	}
	if s.Count() != 1 {
		t.Fatalf("expected one distinct entry for duplicate content, got %d", s.Count())
	}
}

func TestFreezeDistinguishesContent(t *testing.T) {
	s := New()

	a := s.Freeze(object.NewString("x"))
	b := s.Freeze(object.NewInteger(1000))

	if a == b {
		t.Fatalf("expected distinct content to intern to distinct pointers")
	}
	if s.Count() != 2 {
		t.Fatalf("expected two distinct entries, got %d", s.Count())
	}
}

func TestTeardownClearsEntries(t *testing.T) {
	s := New()
	s.Freeze(object.NewString("gone"))
	if s.Count() != 1 {
		t.Fatalf("expected one entry before teardown")
	}

	s.Teardown()
	if s.Count() != 0 {
		t.Fatalf("expected teardown to clear all entries, got %d", s.Count())
	}
}
