// Package scope implements FilterX's variable scope: the sorted handle
// table described in spec.md §3.6-§3.7, message-tied vs floating/declared
// variables, generation-based lazy invalidation across blocks, and
// write-protected clone-on-write ("make_writable").
package scope

import (
	"sort"

	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/message"
)

// maxGeneration bounds the generation counter to 2^20-1 (spec.md §3.7).
const maxGeneration = 1<<20 - 1

// Variable is one entry in a Scope's table (spec.md §3.6: "handle, value,
// flags, generation").
type Variable struct {
	Handle     Handle
	Value      *object.Value // nil means an explicit whiteout (unset)
	Assigned   bool
	Declared   bool
	Generation uint32
}

// Scope is the per-eval variable table. It is created once per top-level
// evaluation and shared (by reference, write-protected) with any nested
// block/function scopes that don't need their own writable copy until they
// actually mutate something (spec.md §3.7's make_writable).
type Scope struct {
	vars           []*Variable // kept sorted by Handle for binary search
	generation     uint32
	writeProtected bool
	dirty          bool
	msg            *message.Message
	parent         *Scope
}

// New creates a root scope bound to a host message.
func New(msg *message.Message) *Scope {
	return &Scope{msg: msg}
}

// Message returns the host message this scope syncs against.
func (s *Scope) Message() *message.Message { return s.msg }

// Dirty reports whether any variable was assigned/unset since the last
// sync (spec.md §4.14).
func (s *Scope) Dirty() bool { return s.dirty }

// MarkClean clears the dirty flag after a successful sync.
func (s *Scope) MarkClean() { s.dirty = false }

// Generation returns the scope's current generation counter.
func (s *Scope) Generation() uint32 { return s.generation }

// Variables returns the live sorted variable table, for consumers that
// need to walk every entry (e.g. sync writing back message-tied
// variables).
func (s *Scope) Variables() []*Variable { return s.vars }

func (s *Scope) find(h Handle) (int, bool) {
	i := sort.Search(len(s.vars), func(i int) bool { return s.vars[i].Handle >= h })
	if i < len(s.vars) && s.vars[i].Handle == h {
		return i, true
	}
	return i, false
}

// Get looks up a variable, applying the lazy-invalidation rule for
// floating variables (spec.md §3.7: "Floating variables whose generation
// does not match the current scope generation are considered absent").
// Message-tied variables are never subject to generation invalidation;
// absence there means "not assigned this eval", and the caller falls back
// to reading the live message field.
func (s *Scope) Get(h Handle) (*Variable, bool) {
	i, ok := s.find(h)
	if !ok {
		return nil, false
	}
	v := s.vars[i]

	if !h.IsFloating() {
		return v, true
	}
	if v.Declared {
		// Declared floating variables persist across block boundaries;
		// refresh so later lookups in this same generation stay cheap.
		v.Generation = s.generation
		return v, true
	}
	if v.Generation != s.generation {
		return nil, false
	}
	return v, true
}

// Set inserts or updates a variable's value, marking the scope dirty.
// declared marks the variable as surviving generation bumps (spec.md
// §3.7's DECLARED_FLOATING kind).
func (s *Scope) Set(h Handle, v *object.Value, declared bool) *Variable {
	i, ok := s.find(h)
	var entry *Variable
	if ok {
		entry = s.vars[i]
	} else {
		entry = &Variable{Handle: h}
		s.vars = append(s.vars, nil)
		copy(s.vars[i+1:], s.vars[i:])
		s.vars[i] = entry
	}
	entry.Value = v
	entry.Assigned = true
	entry.Generation = s.generation
	if declared {
		entry.Declared = true
	}
	s.dirty = true
	return entry
}

// Unset marks a variable as an explicit whiteout: present in the table,
// Assigned, but with a nil Value (spec.md §4.14: "Message-tied with value
// null - remove the field from the host message").
func (s *Scope) Unset(h Handle) {
	s.Set(h, nil, false)
}

// NewBlock bumps the generation counter, invisibly discarding any
// non-declared floating variable assigned in the block that's ending
// (spec.md §3.7). Declared floating variables remain visible because
// Get refreshes their generation on access. Generation wraps rather than
// grows unbounded; a wrap is indistinguishable from a fresh scope to any
// variable not re-declared since, which is the intended effect.
func (s *Scope) NewBlock() {
	if s.generation >= maxGeneration {
		s.generation = 0
	} else {
		s.generation++
	}
}

// WriteProtect marks the scope read-only so it can be shared as a parent
// context without risking in-place mutation (spec.md §3.7's
// write-protection, mirroring object.Value.MakeReadonly for containers).
func (s *Scope) WriteProtect() { s.writeProtected = true }

// MakeWritable returns a scope safe to mutate: itself if not
// write-protected, or a shallow clone (fresh variable slice, same
// entries, write-protection cleared) otherwise. This is FilterX's
// make_writable: cloning happens lazily, only once a write is attempted
// against a possibly-shared scope. The clone also bumps the generation
// (spec.md §3.7), the same pairing the source's filterx_scope_make_writable
// uses — so a block that shares its parent's scope via Child() and then
// writes to it starts a fresh generation at that first write, discarding
// the parent block's own non-declared floating variables from its view.
func (s *Scope) MakeWritable() *Scope {
	if !s.writeProtected {
		return s
	}
	clone := &Scope{
		vars:       make([]*Variable, len(s.vars)),
		generation: s.generation,
		msg:        s.msg,
		parent:     s.parent,
	}
	for i, v := range s.vars {
		cp := *v
		clone.vars[i] = &cp
	}
	clone.NewBlock()
	return clone
}

// Child creates the scope for a chained block (eval.BeginChild): a
// write-protected view of s that only clones once the block actually
// assigns something (spec.md §3.7's scope stacking via the weak parent
// pointer).
func (s *Scope) Child() *Scope {
	s.WriteProtect()
	return &Scope{
		vars:           s.vars,
		generation:     s.generation,
		writeProtected: true,
		msg:            s.msg,
		parent:         s,
	}
}
