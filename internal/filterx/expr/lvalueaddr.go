package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/filterx/ref"
)

// rootRefOf resolves the base operand of a single-level getattr/
// subscript assignment to a CoW root (spec.md §4.7). Only a bare
// VariableRef is addressable this way; multi-level chains (`a.b[c].d =
// x`) go through DPathLValue instead, which is exactly the role spec.md
// §4.13 assigns it, so this restriction doesn't lose expressiveness.
func rootRefOf(ctx *eval.Context, n Node, autoVivify bool) (*ref.Ref, *VariableRef, error) {
	v, ok := n.(*VariableRef)
	if !ok {
		return nil, nil, object.NewTypeError("assignable variable base", nil)
	}

	existing, ok := ctx.Scope.Get(v.Handle)
	if ok && existing.Value != nil {
		r := ref.Root(existing.Value)
		ctx.Refs.Track(r)
		return r, v, nil
	}
	if !autoVivify {
		val, err := v.Eval(ctx)
		if err != nil {
			return nil, nil, err
		}
		r := ref.Root(val)
		ctx.Refs.Track(r)
		return r, v, nil
	}
	fresh := object.NewDict()
	if err := v.Assign(ctx, fresh); err != nil {
		return nil, nil, err
	}
	stored, _ := ctx.Scope.Get(v.Handle)
	r := ref.Root(stored.Value)
	ctx.Refs.Track(r)
	return r, v, nil
}

// regroundRoot writes a (possibly CoW-cloned) root ref's value back into
// the variable it came from, then marks the ref grounded so the weak-ref
// registry doesn't release it at scope teardown.
func regroundRoot(ctx *eval.Context, v *VariableRef, r *ref.Ref) {
	v.assignDirect(ctx, r.Value)
	r.Ground()
}
