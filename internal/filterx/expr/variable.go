package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/filterx/scope"
)

// VariableRef is a handle-based variable reference (spec.md §4.10).
// Macro carries the spec's "host-message macro (computed, read-only)"
// flag: macros reject assign/unset.
type VariableRef struct {
	Base
	NoChildren
	Handle scope.Handle
	Name   string
	Macro  bool
}

func NewVariableRef(loc eval.Location, h scope.Handle, name string, macro bool) *VariableRef {
	n := &VariableRef{Handle: h, Name: name, Macro: macro}
	n.loc = loc
	return n
}

func (n *VariableRef) Optimize() Node { return n }

// Eval implements spec.md §4.10: scope lookup first; for a message-tied
// handle absent from the scope, lazily pull from the host message,
// register it in the scope (so later reads in the same eval are O(log
// n) scope lookups, not repeated message reads), and return it.
func (n *VariableRef) Eval(ctx *eval.Context) (*object.Value, error) {
	if v, ok := ctx.Scope.Get(n.Handle); ok {
		if v.Value == nil {
			ctx.PushError(n.loc, "no such variable: "+n.Name, nil, "", false)
			return nil, object.NewLookupError(n.Name)
		}
		return v.Value, nil
	}

	if !n.Handle.IsFloating() {
		if mv := ctx.Msg.AsMessageValue(n.Name); mv != nil {
			ctx.Scope.Set(n.Handle, mv, false)
			return mv, nil
		}
	}

	err := object.NewLookupError(n.Name)
	ctx.PushError(n.loc, "no such variable: "+n.Name, nil, "", false)
	return nil, err
}

// Assign implements spec.md §4.10: macros reject assignment; otherwise
// the value is cloned (a no-op for immutable types) and stored,
// registering the variable with the scope's current generation if it
// wasn't present yet.
func (n *VariableRef) Assign(ctx *eval.Context, newValue *object.Value) error {
	if n.Macro {
		err := object.NewMacroReadonlyError(n.Name)
		ctx.PushError(n.loc, err.Error(), nil, "", false)
		return err
	}
	ctx.Scope = ctx.Scope.MakeWritable()
	ctx.Scope.Set(n.Handle, newValue.Clone(), false)
	return nil
}

// assignDirect stores a value without cloning it, used by the
// getattr/subscript CoW machinery to write back an already
// uniquely-owned root value after Touch() (re-cloning it would be a
// needless extra copy, not an incorrectness).
func (n *VariableRef) assignDirect(ctx *eval.Context, v *object.Value) {
	ctx.Scope = ctx.Scope.MakeWritable()
	ctx.Scope.Set(n.Handle, v, false)
}

// IsSet implements spec.md §4.10.
func (n *VariableRef) IsSet(ctx *eval.Context) (bool, error) {
	if v, ok := ctx.Scope.Get(n.Handle); ok {
		return v.Value != nil, nil
	}
	if !n.Handle.IsFloating() {
		return ctx.Msg.Has(n.Name), nil
	}
	return false, nil
}

// Unset implements spec.md §4.10: marks a whiteout entry so sync erases
// the field if it came from the message.
func (n *VariableRef) Unset(ctx *eval.Context) error {
	if n.Macro {
		err := object.NewMacroReadonlyError(n.Name)
		ctx.PushError(n.loc, err.Error(), nil, "", false)
		return err
	}
	ctx.Scope = ctx.Scope.MakeWritable()
	ctx.Scope.Unset(n.Handle)
	return nil
}

// Move returns the current value then unsets the variable, transferring
// ownership without a clone.
func (n *VariableRef) Move(ctx *eval.Context) (*object.Value, error) {
	v, err := n.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if err := n.Unset(ctx); err != nil {
		return nil, err
	}
	return v, nil
}
