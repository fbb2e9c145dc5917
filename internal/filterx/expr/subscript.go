package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Subscript implements spec.md §4.7's get_subscript/set_subscript: both
// operand and key are arbitrary expressions (unlike GetAttr, whose key
// is always a literal string).
type Subscript struct {
	Base
	Object Node
	Key    Node
	// NullCoalesce makes an assignment suppress the write when rhs is
	// null (spec.md §4.7: "null_coalesce variant suppresses if rhs is
	// null"). Only meaningful when this node is used as an l-value.
	NullCoalesce bool
}

func NewSubscript(loc eval.Location, obj, key Node) *Subscript {
	n := &Subscript{Object: obj, Key: key}
	n.loc = loc
	return n
}

func (n *Subscript) WalkChildren(order Order, visit func(Node) bool) {
	if order == PreOrder {
		if !visit(n.Object) {
			return
		}
		visit(n.Key)
		return
	}
	if !visit(n.Key) {
		return
	}
	visit(n.Object)
}

func (n *Subscript) Optimize() Node {
	n.Object = n.Object.Optimize()
	n.Key = n.Key.Optimize()
	return n
}

func (n *Subscript) evalKey(ctx *eval.Context) (*object.Value, error) {
	k, err := n.Key.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if k == nil {
		pushFalsy(ctx, n.Key.Loc(), nil)
		return nil, nil
	}
	return k, nil
}

// Eval implements get_subscript: the returned value, if shared, would
// conceptually be replaced by a floating ref whose parent is the operand
// ref (spec.md §4.7); since r-value reads never mutate, returning the
// stored value directly is observably identical and avoids an
// unnecessary ref allocation on every read.
func (n *Subscript) Eval(ctx *eval.Context) (*object.Value, error) {
	obj, err := n.Object.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		pushFalsy(ctx, n.loc, nil)
		return nil, nil
	}
	obj, err = typed(obj)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	key, err := n.evalKey(ctx)
	if err != nil || key == nil {
		return nil, err
	}
	v, err := obj.GetSub(key)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	return v, nil
}

// Assign implements set_subscript (spec.md §4.7): evaluates value then
// operand then key; rejects readonly operands; clones the value before
// storage.
func (n *Subscript) Assign(ctx *eval.Context, newValue *object.Value) error {
	if n.NullCoalesce && (newValue == nil || object.IsNull(newValue)) {
		return nil
	}
	r, v, err := rootRefOf(ctx, n.Object, true)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return err
	}
	key, err := n.evalKey(ctx)
	if err != nil {
		return err
	}
	if key == nil {
		return nil
	}
	if r.Value.IsReadonly() {
		err := object.NewReadonlyError(r.Value)
		ctx.PushError(n.loc, err.Error(), nil, "", false)
		return err
	}
	if err := r.SetSub(key, newValue.Clone()); err != nil {
		pushEvalError(ctx, n.loc, err)
		return err
	}
	regroundRoot(ctx, v, r)
	return nil
}

// IsSet implements spec.md §4.7.
func (n *Subscript) IsSet(ctx *eval.Context) (bool, error) {
	obj, err := n.Object.Eval(ctx)
	if err != nil || obj == nil {
		return false, err
	}
	obj, err = typed(obj)
	if err != nil {
		return false, err
	}
	key, err := n.evalKey(ctx)
	if err != nil || key == nil {
		return false, err
	}
	return obj.IsKeySet(key)
}

// Unset implements spec.md §4.7.
func (n *Subscript) Unset(ctx *eval.Context) error {
	r, v, err := rootRefOf(ctx, n.Object, false)
	if err != nil {
		return err
	}
	key, err := n.evalKey(ctx)
	if err != nil || key == nil {
		return err
	}
	if err := r.UnsetKey(key); err != nil {
		pushEvalError(ctx, n.loc, err)
		return err
	}
	regroundRoot(ctx, v, r)
	return nil
}

// Move implements spec.md §4.7.
func (n *Subscript) Move(ctx *eval.Context) (*object.Value, error) {
	r, v, err := rootRefOf(ctx, n.Object, false)
	if err != nil {
		return nil, err
	}
	key, err := n.evalKey(ctx)
	if err != nil || key == nil {
		return nil, err
	}
	mv, err := r.MoveKey(key)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	regroundRoot(ctx, v, r)
	return mv, nil
}
