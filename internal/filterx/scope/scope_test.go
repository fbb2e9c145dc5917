package scope

import (
	"testing"

	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/message"
)

func TestTableHandlesStableAndNamespaced(t *testing.T) {
	tbl := NewTable()

	h1 := tbl.MessageHandle("MESSAGE")
	h2 := tbl.MessageHandle("MESSAGE")
	if h1 != h2 {
		t.Fatalf("expected stable handle for repeated name, got %v and %v", h1, h2)
	}
	if h1.IsFloating() {
		t.Fatalf("message-tied handle must not carry the floating bit")
	}

	f1 := tbl.FloatingHandle("x")
	if !f1.IsFloating() {
		t.Fatalf("floating handle must carry the floating bit")
	}
	if tbl.Name(f1) != "x" {
		t.Fatalf("expected name round-trip, got %q", tbl.Name(f1))
	}

	// Same textual name in each namespace must not collide.
	f2 := tbl.FloatingHandle("MESSAGE")
	if f2 == h1 {
		t.Fatalf("floating and message-tied namespaces must not collide")
	}
}

func TestScopeSetGetAndUnset(t *testing.T) {
	tbl := NewTable()
	s := New(message.New())

	hx := tbl.FloatingHandle("x")
	hy := tbl.FloatingHandle("y")

	s.Set(hx, object.NewInteger(1), false)
	s.Set(hy, object.NewInteger(2), false)

	v, ok := s.Get(hx)
	if !ok || v.Value.AsInteger() != 1 {
		t.Fatalf("expected x=1, got %#v ok=%v", v, ok)
	}
	if !s.Dirty() {
		t.Fatalf("expected scope to be dirty after Set")
	}

	s.Unset(hx)
	v, ok = s.Get(hx)
	if !ok {
		t.Fatalf("expected whiteout entry to remain present")
	}
	if v.Value != nil {
		t.Fatalf("expected whiteout to carry nil value")
	}
}

func TestScopeGenerationInvalidatesNonDeclaredFloating(t *testing.T) {
	tbl := NewTable()
	s := New(message.New())

	hx := tbl.FloatingHandle("x")
	hDecl := tbl.FloatingHandle("decl")

	s.Set(hx, object.NewInteger(1), false)
	s.Set(hDecl, object.NewInteger(2), true)

	s.NewBlock()

	if _, ok := s.Get(hx); ok {
		t.Fatalf("non-declared floating variable should be invisible after a block boundary")
	}
	v, ok := s.Get(hDecl)
	if !ok || v.Value.AsInteger() != 2 {
		t.Fatalf("declared floating variable must survive a block boundary, got %#v ok=%v", v, ok)
	}
}

func TestScopeMakeWritableClonesOnlyWhenProtected(t *testing.T) {
	tbl := NewTable()
	s := New(message.New())
	hx := tbl.FloatingHandle("x")
	s.Set(hx, object.NewInteger(1), false)

	same := s.MakeWritable()
	if same != s {
		t.Fatalf("MakeWritable should return the receiver when not write-protected")
	}

	child := s.Child()
	writable := child.MakeWritable()
	if writable == child {
		t.Fatalf("MakeWritable should clone a write-protected scope")
	}

	writable.Set(hx, object.NewInteger(99), false)
	v, _ := s.Get(hx)
	if v.Value.AsInteger() != 1 {
		t.Fatalf("mutating the writable clone must not affect the parent scope's value")
	}
}
