package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Case is one switch arm: a value expression and the index into the
// switch's flattened Body where its statements begin (spec.md §4.5).
type Case struct {
	Value  Node
	Target int
}

// Switch implements spec.md §4.5. Body holds every case's statements
// flattened in source order; Cases/DefaultTarget index into it.
type Switch struct {
	Base
	Selector      Node
	Cases         []Case
	DefaultTarget int // -1 means "return true without executing any body"
	Body          *Compound
}

func NewSwitch(loc eval.Location, selector Node, cases []Case, defaultTarget int, body *Compound) *Switch {
	n := &Switch{Selector: selector, Cases: cases, DefaultTarget: defaultTarget, Body: body}
	n.loc = loc
	return n
}

func (n *Switch) WalkChildren(order Order, visit func(Node) bool) {
	if order == PreOrder {
		if !visit(n.Selector) {
			return
		}
		for _, c := range n.Cases {
			if !visit(c.Value) {
				return
			}
		}
		visit(n.Body)
		return
	}
	if !visit(n.Body) {
		return
	}
	for i := len(n.Cases) - 1; i >= 0; i-- {
		if !visit(n.Cases[i].Value) {
			return
		}
	}
	visit(n.Selector)
}

func (n *Switch) Optimize() Node {
	n.Selector = n.Selector.Optimize()
	for i, c := range n.Cases {
		n.Cases[i].Value = c.Value.Optimize()
	}
	if body, ok := n.Body.Optimize().(*Compound); ok {
		n.Body = body
	}
	return n
}

// Eval implements spec.md §4.5's evaluation algorithm: scan every case
// (selector equality by type-and-value comparison), remembering the
// last matching case's target, then evaluate the body from there.
func (n *Switch) Eval(ctx *eval.Context) (*object.Value, error) {
	sel, err := n.Selector.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if sel == nil {
		pushFalsy(ctx, n.Selector.Loc(), nil)
		return nil, nil
	}
	sel, err = typed(sel)
	if err != nil {
		pushEvalError(ctx, n.Selector.Loc(), err)
		return nil, err
	}

	target := n.DefaultTarget
	for _, c := range n.Cases {
		cv, err := c.Value.Eval(ctx)
		if err != nil {
			return nil, err
		}
		if cv == nil {
			continue
		}
		cv, err = typed(cv)
		if err != nil {
			continue
		}
		eq, err := compareValues(CmpEq, sel, cv)
		if err != nil {
			continue
		}
		if eq {
			target = c.Target
		}
	}

	if target < 0 {
		return object.NewBoolean(true), nil
	}
	return n.Body.EvalFrom(ctx, target)
}
