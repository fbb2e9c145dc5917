// Package expr implements FilterX's expression tree (spec.md §4): the
// polymorphic node kinds sharing eval/assign/optimize/walk-children/free
// and the deep-path l-value helper used by assignment.
package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Order selects pre- or post-order child traversal for WalkChildren
// (spec.md §4.2's walk_children(order, visitor, user)).
type Order int

const (
	PreOrder Order = iota
	PostOrder
)

// Node is the common expression-node contract (spec.md §4.2). Every node
// satisfies eval.Evaluable so an eval.Context can drive it without eval
// importing expr.
type Node interface {
	eval.Evaluable
	Loc() eval.Location
	// WalkChildren visits direct children in the given order; visit
	// returns false to stop early.
	WalkChildren(order Order, visit func(Node) bool)
	// Optimize is called recursively after parsing; it may return a
	// replacement node or itself unchanged.
	Optimize() Node
}

// Assignable is implemented by l-value nodes (spec.md §4.2: "assign(self,
// new_value) -> bool").
type Assignable interface {
	Assign(ctx *eval.Context, newValue *object.Value) error
}

// Settable is implemented by l-value nodes that additionally support
// is_set/unset/move.
type Settable interface {
	IsSet(ctx *eval.Context) (bool, error)
	Unset(ctx *eval.Context) error
	Move(ctx *eval.Context) (*object.Value, error)
}

// Base holds the fields every node carries (spec.md §4.2): source
// location and the four evaluation flags. Embed it in concrete node
// types rather than reimplementing Loc/flag bookkeeping each time.
type Base struct {
	loc               eval.Location
	IgnoreFalsyResult bool
	SuppressFromTrace bool
	inited            bool
	optimized         bool
}

func NewBase(loc eval.Location) Base { return Base{loc: loc} }

func (b *Base) Loc() eval.Location { return b.loc }

// ignoreFalsy backs the Compound dispatch loop's falsy-short-circuit
// check via an unexported structural interface, so any node embedding
// Base participates without a per-type override.
func (b *Base) ignoreFalsy() bool { return b.IgnoreFalsyResult }

func (b *Base) Inited() bool    { return b.inited }
func (b *Base) MarkInited()     { b.inited = true }
func (b *Base) Optimized() bool { return b.optimized }
func (b *Base) MarkOptimized()  { b.optimized = true }

// NoChildren is embeddable by leaf nodes (literal, break/done/drop).
type NoChildren struct{}

func (NoChildren) WalkChildren(Order, func(Node) bool) {}

// pushFalsy records the falsy-short-circuit error (spec.md §4.3, §7
// item 7) used by compound and boolean evaluation paths.
func pushFalsy(ctx *eval.Context, loc eval.Location, v *object.Value) {
	msg := "expression evaluated to a falsy value"
	if v == nil {
		msg = "expression evaluated to null"
	}
	ctx.PushError(loc, msg, v, "", true)
}

// pushEvalError records a generic evaluation error (spec.md §7 item 1).
func pushEvalError(ctx *eval.Context, loc eval.Location, err error) {
	ctx.PushError(loc, err.Error(), nil, "", false)
}
