package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Literal wraps a constant value, typically frozen at load time by
// FreezeLiterals (spec.md §4.15); Optimize leaves it as is. Scalars are immutable so Eval returns the shared
// pointer directly; no clone is needed until something downstream
// mutates it, which can't happen to a frozen/immutable value.
type Literal struct {
	Base
	NoChildren
	Value *object.Value
}

func NewLiteral(loc eval.Location, v *object.Value) *Literal {
	l := &Literal{Value: v}
	l.loc = loc
	return l
}

func (l *Literal) Eval(ctx *eval.Context) (*object.Value, error) { return l.Value, nil }

func (l *Literal) Optimize() Node { return l }

// Freeze interns the literal's value via the given freezer (spec.md
// §4.15); a nil freezer leaves it unchanged. Callers invoke this once, at
// config load, not per eval.
func (l *Literal) Freeze(freezer object.Freezer) {
	if freezer == nil {
		return
	}
	l.Value = l.Value.Type().Methods.Freeze(l.Value, freezer)
}

// FreezeLiterals walks root and every descendant (spec.md §4.15, §4.2's
// walk_children), interning every *Literal's value through freezer. This
// is the one pass a driver needs to run, once per parsed program right
// after Optimize, to actually exercise the freeze store instead of
// merely constructing one — Optimize itself never freezes: Literal has
// no freezer to call Freeze with until a driver supplies one out-of-band
// (spec.md §9's filterx_config owns the one freeze store a whole
// configuration's literals share).
func FreezeLiterals(root Node, freezer object.Freezer) {
	if freezer == nil || root == nil {
		return
	}
	if l, ok := root.(*Literal); ok {
		l.Freeze(freezer)
	}
	root.WalkChildren(PreOrder, func(child Node) bool {
		FreezeLiterals(child, freezer)
		return true
	})
}

// ListLiteral builds a fresh list from evaluated child expressions every
// time it runs; unlike Literal this always allocates a new container so
// successive evaluations (e.g. across messages sharing a compiled
// program) never alias each other.
type ListLiteral struct {
	Base
	Items []Node
}

func NewListLiteral(loc eval.Location, items []Node) *ListLiteral {
	n := &ListLiteral{Items: items}
	n.loc = loc
	return n
}

func (n *ListLiteral) Eval(ctx *eval.Context) (*object.Value, error) {
	vals := make([]*object.Value, 0, len(n.Items))
	for _, item := range n.Items {
		v, err := item.Eval(ctx)
		if err != nil {
			pushEvalError(ctx, n.loc, err)
			return nil, err
		}
		if v == nil {
			pushFalsy(ctx, item.Loc(), nil)
			return nil, nil
		}
		vals = append(vals, v)
	}
	return object.NewList(vals), nil
}

func (n *ListLiteral) WalkChildren(order Order, visit func(Node) bool) {
	for _, item := range n.Items {
		if !visit(item) {
			return
		}
	}
}

func (n *ListLiteral) Optimize() Node {
	for i, item := range n.Items {
		n.Items[i] = item.Optimize()
	}
	return n
}

// DictLiteral builds a fresh dict from evaluated value expressions,
// preserving source key order (spec.md §3.4: dict "preserves insertion
// order").
type DictLiteral struct {
	Base
	Keys   []string
	Values []Node
}

func NewDictLiteral(loc eval.Location, keys []string, values []Node) *DictLiteral {
	n := &DictLiteral{Keys: keys, Values: values}
	n.loc = loc
	return n
}

func (n *DictLiteral) Eval(ctx *eval.Context) (*object.Value, error) {
	vals := make([]*object.Value, 0, len(n.Values))
	for _, item := range n.Values {
		v, err := item.Eval(ctx)
		if err != nil {
			pushEvalError(ctx, n.loc, err)
			return nil, err
		}
		if v == nil {
			pushFalsy(ctx, item.Loc(), nil)
			return nil, nil
		}
		vals = append(vals, v)
	}
	return object.NewDictFrom(n.Keys, vals), nil
}

func (n *DictLiteral) WalkChildren(order Order, visit func(Node) bool) {
	for _, item := range n.Values {
		if !visit(item) {
			return
		}
	}
}

func (n *DictLiteral) Optimize() Node {
	for i, item := range n.Values {
		n.Values[i] = item.Optimize()
	}
	return n
}
