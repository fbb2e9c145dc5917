package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Conditional implements if/elif/else (spec.md §4.4). FalseBranch is
// typically another Conditional, forming a chain.
type Conditional struct {
	Base
	Condition   Node
	TrueBranch  Node // nil means "yield the condition's value"
	FalseBranch Node // nil means "yield boolean true"
}

func NewConditional(loc eval.Location, cond, trueBranch, falseBranch Node) *Conditional {
	n := &Conditional{Condition: cond, TrueBranch: trueBranch, FalseBranch: falseBranch}
	n.loc = loc
	return n
}

func (n *Conditional) WalkChildren(order Order, visit func(Node) bool) {
	children := []Node{n.Condition}
	if n.TrueBranch != nil {
		children = append(children, n.TrueBranch)
	}
	if n.FalseBranch != nil {
		children = append(children, n.FalseBranch)
	}
	if order == PostOrder {
		for i, j := 0, len(children)-1; i < j; i, j = i+1, j-1 {
			children[i], children[j] = children[j], children[i]
		}
	}
	for _, c := range children {
		if !visit(c) {
			return
		}
	}
}

// Optimize collapses a literal condition to its selected branch at load
// time (spec.md §4.4); otherwise recurses into all children.
func (n *Conditional) Optimize() Node {
	n.Condition = n.Condition.Optimize()
	if n.TrueBranch != nil {
		n.TrueBranch = n.TrueBranch.Optimize()
	}
	if n.FalseBranch != nil {
		n.FalseBranch = n.FalseBranch.Optimize()
	}

	if lit, ok := n.Condition.(*Literal); ok {
		if lit.Value.Truthy() {
			if n.TrueBranch != nil {
				return n.TrueBranch
			}
			return n.Condition
		}
		if n.FalseBranch != nil {
			return n.FalseBranch
		}
		return NewLiteral(n.loc, object.NewBoolean(true))
	}
	return n
}

func (n *Conditional) Eval(ctx *eval.Context) (*object.Value, error) {
	cond, err := n.Condition.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if cond == nil {
		pushFalsy(ctx, n.Condition.Loc(), nil)
		return nil, nil
	}

	if cond.Truthy() {
		if n.TrueBranch != nil {
			return n.TrueBranch.Eval(ctx)
		}
		return cond, nil
	}

	if n.FalseBranch != nil {
		return n.FalseBranch.Eval(ctx)
	}
	return object.NewBoolean(true), nil
}
