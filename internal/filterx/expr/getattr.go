package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// GetAttr implements spec.md §4.7's getattr(obj, name-literal-string):
// dispatches to the dict-like getattr on the evaluated operand.
type GetAttr struct {
	Base
	Object Node
	Key    string
}

func NewGetAttr(loc eval.Location, obj Node, key string) *GetAttr {
	n := &GetAttr{Object: obj, Key: key}
	n.loc = loc
	return n
}

func (n *GetAttr) WalkChildren(order Order, visit func(Node) bool) { visit(n.Object) }

func (n *GetAttr) Optimize() Node {
	n.Object = n.Object.Optimize()
	return n
}

func (n *GetAttr) Eval(ctx *eval.Context) (*object.Value, error) {
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
	v, err := obj.GetAttr(n.Key)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	return v, nil
}

// Assign implements set via the single-level CoW root (spec.md §4.7).
func (n *GetAttr) Assign(ctx *eval.Context, newValue *object.Value) error {
	r, v, err := rootRefOf(ctx, n.Object, true)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return err
	}
	keyVal := object.NewString(n.Key)
	if err := r.SetSub(keyVal, newValue.Clone()); err != nil {
		pushEvalError(ctx, n.loc, err)
		return err
	}
	regroundRoot(ctx, v, r)
	return nil
}

// IsSet implements spec.md §4.7.
func (n *GetAttr) IsSet(ctx *eval.Context) (bool, error) {
	obj, err := n.Object.Eval(ctx)
	if err != nil || obj == nil {
		return false, err
	}
	obj, err = typed(obj)
	if err != nil {
		return false, err
	}
	return obj.IsKeySet(object.NewString(n.Key))
}

// Unset implements spec.md §4.7.
func (n *GetAttr) Unset(ctx *eval.Context) error {
	r, v, err := rootRefOf(ctx, n.Object, false)
	if err != nil {
		return err
	}
	if err := r.UnsetKey(object.NewString(n.Key)); err != nil {
		pushEvalError(ctx, n.loc, err)
		return err
	}
	regroundRoot(ctx, v, r)
	return nil
}

// Move implements spec.md §4.7.
func (n *GetAttr) Move(ctx *eval.Context) (*object.Value, error) {
	r, v, err := rootRefOf(ctx, n.Object, false)
	if err != nil {
		return nil, err
	}
	mv, err := r.MoveKey(object.NewString(n.Key))
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	regroundRoot(ctx, v, r)
	return mv, nil
}
