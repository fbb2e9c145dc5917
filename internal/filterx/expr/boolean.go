package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// And/Or implement short-circuit logical operators (spec.md §4.8).
type And struct {
	Base
	Left, Right Node
}

func NewAnd(loc eval.Location, left, right Node) *And {
	n := &And{Left: left, Right: right}
	n.loc = loc
	return n
}

func (n *And) WalkChildren(order Order, visit func(Node) bool) {
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

// Optimize unlinks a literal-truthy lhs so runtime evaluation skips
// straight to rhs (spec.md §4.8).
func (n *And) Optimize() Node {
	n.Left = n.Left.Optimize()
	n.Right = n.Right.Optimize()
	if lit, ok := n.Left.(*Literal); ok && lit.Value.Truthy() {
		return n.Right
	}
	return n
}

func (n *And) Eval(ctx *eval.Context) (*object.Value, error) {
	a, err := n.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		pushFalsy(ctx, n.Left.Loc(), nil)
		return nil, nil
	}
	if !a.Truthy() {
		return object.NewBoolean(false), nil
	}
	b, err := n.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		pushFalsy(ctx, n.Right.Loc(), nil)
		return nil, nil
	}
	return object.NewBoolean(b.Truthy()), nil
}

type Or struct {
	Base
	Left, Right Node
}

func NewOr(loc eval.Location, left, right Node) *Or {
	n := &Or{Left: left, Right: right}
	n.loc = loc
	return n
}

func (n *Or) WalkChildren(order Order, visit func(Node) bool) {
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

func (n *Or) Optimize() Node {
	n.Left = n.Left.Optimize()
	n.Right = n.Right.Optimize()
	if lit, ok := n.Left.(*Literal); ok && !lit.Value.Truthy() {
		return n.Right
	}
	return n
}

func (n *Or) Eval(ctx *eval.Context) (*object.Value, error) {
	a, err := n.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		pushFalsy(ctx, n.Left.Loc(), nil)
		return nil, nil
	}
	if a.Truthy() {
		return object.NewBoolean(true), nil
	}
	b, err := n.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		pushFalsy(ctx, n.Right.Loc(), nil)
		return nil, nil
	}
	return object.NewBoolean(b.Truthy()), nil
}

// Not negates truthiness (spec.md §4.8).
type Not struct {
	Base
	Operand Node
}

func NewNot(loc eval.Location, operand Node) *Not {
	n := &Not{Operand: operand}
	n.loc = loc
	return n
}

func (n *Not) WalkChildren(order Order, visit func(Node) bool) { visit(n.Operand) }

func (n *Not) Optimize() Node {
	n.Operand = n.Operand.Optimize()
	if lit, ok := n.Operand.(*Literal); ok {
		return NewLiteral(n.loc, object.NewBoolean(!lit.Value.Truthy()))
	}
	return n
}

func (n *Not) Eval(ctx *eval.Context) (*object.Value, error) {
	v, err := n.Operand.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		pushFalsy(ctx, n.loc, nil)
		return nil, nil
	}
	return object.NewBoolean(!v.Truthy()), nil
}
