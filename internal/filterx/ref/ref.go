// Package ref implements FilterX's copy-on-write wrapper around mutable
// containers (list/dict), per spec.md §3.5 and the "Floating refs vs
// grounded refs" design note in spec.md §9.
//
// A Ref holds a strong pointer to the wrapped container Value, a weak
// pointer to a parent Ref (nil at the root), and the key under which it
// was fetched from that parent. The wrapped Value's fx-ref-count (spec.md
// §3.1's fx_ref_cnt) counts how many live Refs currently alias it; Touch
// implements cow_touch, cloning and decoupling from siblings the moment a
// mutation is attempted, and propagating the clone up the parent chain so
// the whole path to the root becomes privately owned.
package ref

import (
	"errors"

	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Ref is the CoW wrapper described in spec.md §3.5.
type Ref struct {
	Value    *object.Value
	parent   *Ref
	key      *object.Value // key/attr this ref was fetched under within parent; nil at root
	floating bool
}

// Root wraps a freshly-created or otherwise uniquely-owned container as a
// grounded root ref (e.g. the value bound to a variable). It seeds the
// container's share count to 1.
func Root(v *object.Value) *Ref {
	v.FxIncr()
	return &Ref{Value: v, floating: false}
}

// IsFloating reports whether this ref is still a temporary (spec.md §3.5:
// "floating refs never leak across statement boundaries").
func (r *Ref) IsFloating() bool { return r.floating }

// Ground marks the ref as stored somewhere persistent (set_subscript,
// setattr, assignment) — spec.md §3.5: "grounded when stored somewhere...
// or are dropped at the end of the statement".
func (r *Ref) Ground() { r.floating = false }

// isContainer reports whether a Value participates in CoW at all; only
// List/Dict do (spec.md §3.4: "Two kinds exist... Both are mutable and
// participate in CoW").
func isContainer(v *object.Value) bool {
	return v.Kind() == object.KindList || v.Kind() == object.KindDict
}

// Child fetches v[key] and, if the result is itself a mutable container,
// returns it wrapped in a new floating Ref parented to r (spec.md §3.5:
// "Any child retrieved through a shared ref must be returned as a
// floating ref"). Non-container children are returned bare since they
// never need CoW. A missing key is not an error here: it returns
// (nil, nil, nil) so callers like DPathLValue.Assign can tell "absent,
// auto-vivify" apart from a real failure (spec.md §4.13).
func (r *Ref) Child(key *object.Value) (*Ref, *object.Value, error) {
	cv, err := r.Value.GetSub(key)
	if err != nil {
		var lookupErr *object.LookupError
		if errors.As(err, &lookupErr) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if !isContainer(cv) {
		return nil, cv, nil
	}
	cv.FxIncr()
	return &Ref{Value: cv, parent: r, key: key, floating: true}, cv, nil
}

// Touch implements cow_touch (spec.md §3.5): if the wrapped value is
// shared by more than one Ref, clone it, release this ref's claim on the
// old share count, and propagate the same treatment up the parent chain
// so that mutation never leaks to a sibling ref of the same original
// object.
func (r *Ref) Touch() error {
	if r.Value.FxShare() <= 1 {
		return nil
	}

	clone := r.Value.Clone()
	r.Value.FxDecr()
	clone.FxIncr()
	r.Value = clone

	if r.parent != nil {
		if err := r.parent.Touch(); err != nil {
			return err
		}
		if err := r.parent.Value.SetSub(r.key, r.Value); err != nil {
			return err
		}
	}
	return nil
}

// SetSub performs cow_touch then sets key=nv on the wrapped container
// (spec.md §4.7's set_subscript/setattr use this uniformly; attribute
// names are passed as string Values).
func (r *Ref) SetSub(key *object.Value, nv *object.Value) error {
	if err := r.Touch(); err != nil {
		return err
	}
	return r.Value.SetSub(key, nv)
}

// UnsetKey performs cow_touch then unsets key.
func (r *Ref) UnsetKey(key *object.Value) error {
	if err := r.Touch(); err != nil {
		return err
	}
	return r.Value.UnsetKey(key)
}

// MoveKey performs cow_touch then moves key out of the wrapped container.
func (r *Ref) MoveKey(key *object.Value) (*object.Value, error) {
	if err := r.Touch(); err != nil {
		return nil, err
	}
	return r.Value.MoveKey(key)
}

// AddInPlace performs cow_touch then merges/extends with b (used by +=
// on container l-values, spec.md §4.6).
func (r *Ref) AddInPlace(b *object.Value) (*object.Value, error) {
	if err := r.Touch(); err != nil {
		return nil, err
	}
	merged, err := r.Value.AddInPlace(b)
	if err != nil {
		return nil, err
	}
	r.Value = merged
	return merged, nil
}

// Release drops this ref's claim on its container's share count. Called
// by the per-scope weak-ref registry at statement/scope teardown for refs
// that never got grounded (spec.md §3.5, §5: "cyclic references across
// refs are broken at scope end by unrefing every object in the per-scope
// weak-ref registry").
func (r *Ref) Release() {
	r.Value.FxDecr()
}

// Registry owns one strong claim on every container that participated in
// CoW during a scope's lifetime, breaking ref cycles at teardown (spec.md
// §5, §9 "Reference cycles").
type Registry struct {
	refs []*Ref
}

// NewRegistry creates an empty weak-ref registry, one per eval scope.
func NewRegistry() *Registry { return &Registry{} }

// Track registers a floating ref so the registry can release it at
// teardown if it's never grounded.
func (reg *Registry) Track(r *Ref) { reg.refs = append(reg.refs, r) }

// Clear releases every still-floating tracked ref and empties the
// registry (spec.md §3.7: scope teardown), severing any cycles formed
// through parent/child Ref links.
func (reg *Registry) Clear() {
	for _, r := range reg.refs {
		if r.floating {
			r.Release()
		}
	}
	reg.refs = nil
}
