package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Assign implements spec.md §4.6's `assign`: evaluates rhs, asks the
// lhs to Assign the (cloned, by the lhs itself per spec.md §4.10/§4.7)
// value. mutates_scope=true is a structural property of this node, not a
// flag consumers need to query, since Eval here always marks the scope
// dirty through the lhs's own Assign. ignore_falsy_result doesn't need to
// be set on Base here: Eval's only non-error returns are boolean true (on
// success) or nil with a falsy frame already pushed explicitly (on a nil
// rhs) — there is no truthy-but-falsy value for Compound to second-guess.
type Assign struct {
	Base
	LHS Assignable
	RHS Node
}

func NewAssign(loc eval.Location, lhs Assignable, rhs Node) *Assign {
	n := &Assign{LHS: lhs, RHS: rhs}
	n.loc = loc
	return n
}

func (n *Assign) WalkChildren(order Order, visit func(Node) bool) {
	if lhsNode, ok := n.LHS.(Node); ok {
		if order == PreOrder {
			if !visit(lhsNode) {
				return
			}
			visit(n.RHS)
			return
		}
		if !visit(n.RHS) {
			return
		}
		visit(lhsNode)
		return
	}
	visit(n.RHS)
}

func (n *Assign) Optimize() Node {
	n.RHS = n.RHS.Optimize()
	if lhsNode, ok := n.LHS.(Node); ok {
		if opt := lhsNode.Optimize(); opt != nil {
			if a, ok := opt.(Assignable); ok {
				n.LHS = a
			}
		}
	}
	return n
}

func (n *Assign) Eval(ctx *eval.Context) (*object.Value, error) {
	rhs, err := n.RHS.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if rhs == nil {
		pushFalsy(ctx, n.RHS.Loc(), nil)
		return nil, nil
	}
	if err := n.LHS.Assign(ctx, rhs); err != nil {
		return nil, err
	}
	return object.NewBoolean(true), nil
}

// NullCoalesceAssign implements `??=` (spec.md §4.6): evaluates rhs; if
// null (error suppressed) returns null without assigning; otherwise
// delegates to the standard assign path.
type NullCoalesceAssign struct {
	Base
	LHS Assignable
	RHS Node
}

// NewNullCoalesceAssign sets IgnoreFalsyResult the same way the source's
// filterx_nullv_assign_new builds on filterx_assign_new before overriding
// type/eval (expr-assign.c): a suppressed null rhs here yields a literal
// null return, which is falsy but not itself a failure, so the enclosing
// Compound must not abort the block over it.
func NewNullCoalesceAssign(loc eval.Location, lhs Assignable, rhs Node) *NullCoalesceAssign {
	n := &NullCoalesceAssign{LHS: lhs, RHS: rhs}
	n.loc = loc
	n.IgnoreFalsyResult = true
	return n
}

func (n *NullCoalesceAssign) WalkChildren(order Order, visit func(Node) bool) { visit(n.RHS) }

func (n *NullCoalesceAssign) Optimize() Node {
	n.RHS = n.RHS.Optimize()
	return n
}

func (n *NullCoalesceAssign) Eval(ctx *eval.Context) (*object.Value, error) {
	rhs, err := n.RHS.Eval(ctx)
	if err != nil {
		ctx.PopError()
	}
	if err != nil || object.IsNull(rhs) {
		return object.NewNull(), nil
	}
	if err := n.LHS.Assign(ctx, rhs); err != nil {
		return nil, err
	}
	return object.NewBoolean(true), nil
}

// PlusAssign implements `+=` (spec.md §4.6): delegates to the lhs's
// plus_assign hook, which maps to add_inplace on containers, numeric
// addition for primitives, concatenation for strings. Since our
// Assignable interface doesn't special-case in-place containers, we
// read the current value, compute Add (never Add_InPlace directly on
// the lhs, since lhs may be a fresh read, not the authoritative stored
// ref) and Assign the result back — Assign's own clone-before-store
// preserves copy semantics either way.
type PlusAssign struct {
	Base
	LHS     Assignable
	LHSRead Node
	RHS     Node
}

func NewPlusAssign(loc eval.Location, lhs Assignable, lhsRead, rhs Node) *PlusAssign {
	n := &PlusAssign{LHS: lhs, LHSRead: lhsRead, RHS: rhs}
	n.loc = loc
	return n
}

func (n *PlusAssign) WalkChildren(order Order, visit func(Node) bool) { visit(n.RHS) }

func (n *PlusAssign) Optimize() Node {
	n.RHS = n.RHS.Optimize()
	return n
}

func (n *PlusAssign) Eval(ctx *eval.Context) (*object.Value, error) {
	cur, err := n.LHSRead.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		pushFalsy(ctx, n.LHSRead.Loc(), nil)
		return nil, nil
	}
	rhs, err := n.RHS.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if rhs == nil {
		pushFalsy(ctx, n.RHS.Loc(), nil)
		return nil, nil
	}
	sum, err := cur.Add(rhs)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	if err := n.LHS.Assign(ctx, sum); err != nil {
		return nil, err
	}
	return object.NewBoolean(true), nil
}
