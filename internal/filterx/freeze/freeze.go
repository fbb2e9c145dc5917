// Package freeze implements the per-configuration dedup store used to
// intern process-lifetime-immutable literal values during expression
// optimization (spec.md §4.15).
package freeze

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Store owns a hash table keyed by content-hash -> value pointer, plus a
// flat list of frozen pointers for teardown (spec.md §4.15). One Store is
// bound per global configuration (spec.md §9's `filterx_config`).
type Store struct {
	mu      sync.Mutex
	byHash  map[string]*object.Value
	all     []*object.Value
}

// New creates an empty freeze store, bound to one configuration load.
func New() *Store {
	return &Store{byHash: make(map[string]*object.Value)}
}

// Freeze interns v, deduplicating on content hash. Idempotent: freezing an
// already-frozen value (or a value whose hash already exists) returns the
// existing canonical pointer and is otherwise a no-op (spec.md §4.15,
// §8: "freeze(freeze(v)) == freeze(v)").
func (s *Store) Freeze(v *object.Value) *object.Value {
	if v.IsFrozen() || v.IsHibernated() {
		return v
	}
	return v.Type().Methods.Freeze(v, s)
}

// Intern implements object.Freezer: it is called by a value's own Freeze
// vtable method with a type-prefixed content hash already computed by the
// type (spec.md §4.1: "freeze(&pv, freezer)").
func (s *Store) Intern(contentHash string, v *object.Value) *object.Value {
	hash := hashContent(contentHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byHash[hash]; ok {
		// Re-freezing something already canonical is a no-op; anything
		// else redirects to the existing entry and the redundant value is
		// dropped by the caller (expr/optimize replaces its pointer).
		return existing
	}

	v.MakeReadonly()
	v.MarkFrozen()
	s.byHash[hash] = v
	s.all = append(s.all, v)
	return v
}

// Count returns the number of distinct frozen entries, mainly for tests.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.all)
}

// Teardown drops the store's own references to every frozen value. Frozen
// values never free (the FROZEN sentinel makes Unref a no-op), so this
// only matters for releasing the store's own slice/map memory at config
// unload.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash = make(map[string]*object.Value)
	s.all = nil
}

func hashContent(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
