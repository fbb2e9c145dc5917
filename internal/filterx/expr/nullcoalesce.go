package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// NullCoalesce implements `??` (spec.md §4.9): evaluates lhs; if null or
// failed (error suppressed), evaluates and returns rhs; otherwise
// returns lhs.
type NullCoalesce struct {
	Base
	Left, Right Node
}

func NewNullCoalesce(loc eval.Location, left, right Node) *NullCoalesce {
	n := &NullCoalesce{Left: left, Right: right}
	n.loc = loc
	return n
}

func (n *NullCoalesce) WalkChildren(order Order, visit func(Node) bool) {
	if order == PreOrder {
		if !visit(n.Left) {
			return
		}
		visit(n.Right)
		return
	}
	if !visit(n.Right) {
		return
	}
	visit(n.Left)
}

// Optimize collapses a literal lhs (spec.md §4.9).
func (n *NullCoalesce) Optimize() Node {
	n.Left = n.Left.Optimize()
	n.Right = n.Right.Optimize()
	if lit, ok := n.Left.(*Literal); ok && !object.IsNull(lit.Value) {
		return lit
	}
	return n
}

func (n *NullCoalesce) Eval(ctx *eval.Context) (*object.Value, error) {
	a, err := n.Left.Eval(ctx)
	if err != nil || object.IsNull(a) {
		// Recovery: suppress the error the lhs may have pushed.
		if err != nil {
			ctx.PopError()
		}
		return n.Right.Eval(ctx)
	}
	return a, nil
}
