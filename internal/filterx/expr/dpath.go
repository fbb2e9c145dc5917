package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// DPathElement is one segment of a deep-path chain: a literal object
// key, or an expression to evaluate for the key (spec.md §4.13: "each
// either a literal object key or an evaluator for the key").
type DPathElement struct {
	LiteralKey string
	KeyExpr    Node
}

func (e DPathElement) eval(ctx *eval.Context) (*object.Value, error) {
	if e.KeyExpr == nil {
		return object.NewString(e.LiteralKey), nil
	}
	return e.KeyExpr.Eval(ctx)
}

// DPathLValue is the write-only deep-path l-value `base.a[b].c` (spec.md
// §4.13). It cannot be used as an r-value: Eval always fails.
type DPathLValue struct {
	Base
	RootVar  *VariableRef
	Elements []DPathElement
	// Append, when true, walks every element (the final one included)
	// and merges the rhs dict into the container reached there instead
	// of set_subscript on the final key (spec.md §4.7's dpath_lvalue
	// "append mode").
	Append bool
}

func NewDPathLValue(loc eval.Location, root *VariableRef, elems []DPathElement, appendMode bool) *DPathLValue {
	n := &DPathLValue{RootVar: root, Elements: elems, Append: appendMode}
	n.loc = loc
	return n
}

func (n *DPathLValue) WalkChildren(order Order, visit func(Node) bool) {
	for _, e := range n.Elements {
		if e.KeyExpr != nil && !visit(e.KeyExpr) {
			return
		}
	}
}

func (n *DPathLValue) Optimize() Node {
	for i, e := range n.Elements {
		if e.KeyExpr != nil {
			n.Elements[i].KeyExpr = e.KeyExpr.Optimize()
		}
	}
	return n
}

// Eval rejects use as an r-value (spec.md §4.13: "rejects use as an
// r-value").
func (n *DPathLValue) Eval(ctx *eval.Context) (*object.Value, error) {
	err := object.NewTypeError("l-value only (dpath)", nil)
	ctx.PushError(n.loc, err.Error(), nil, "", false)
	return nil, err
}

// Assign implements spec.md §4.13's walk-and-autovivify algorithm:
// resolve the root to a dict, walk every element but the last (or, in
// append mode, every element including what would be the last),
// creating an empty dict at any missing intermediate, then either
// set_subscript the terminal key or merge the rhs dict.
func (n *DPathLValue) Assign(ctx *eval.Context, newValue *object.Value) error {
	root, rootVar, err := rootRefOf(ctx, n.RootVar, true)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return err
	}
	if root.Value.Kind() != object.KindDict {
		err := object.NewTypeError("dict", root.Value)
		ctx.PushError(n.loc, err.Error(), nil, "", false)
		return err
	}

	cur := root
	stopBefore := len(n.Elements) - 1
	if n.Append {
		stopBefore = len(n.Elements)
	}

	for i := 0; i < stopBefore; i++ {
		key, err := n.Elements[i].eval(ctx)
		if err != nil || key == nil {
			return err
		}
		child, _, err := cur.Child(key)
		if err != nil {
			pushEvalError(ctx, n.loc, err)
			return err
		}
		if child == nil {
			fresh := object.NewDict()
			if err := cur.SetSub(key, fresh); err != nil {
				pushEvalError(ctx, n.loc, err)
				return err
			}
			child, _, err = cur.Child(key)
			if err != nil {
				pushEvalError(ctx, n.loc, err)
				return err
			}
		}
		ctx.Refs.Track(child)
		cur = child
	}

	if n.Append {
		if newValue.Kind() != object.KindDict {
			err := object.NewTypeError("dict (append-mode dpath rhs)", newValue)
			ctx.PushError(n.loc, err.Error(), nil, "", false)
			return err
		}
		if _, err := cur.AddInPlace(newValue); err != nil {
			pushEvalError(ctx, n.loc, err)
			return err
		}
	} else {
		last := n.Elements[len(n.Elements)-1]
		key, err := last.eval(ctx)
		if err != nil || key == nil {
			return err
		}
		if err := cur.SetSub(key, newValue.Clone()); err != nil {
			pushEvalError(ctx, n.loc, err)
			return err
		}
	}

	regroundRoot(ctx, rootVar, root)
	return nil
}
