package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Arg is one (name?, expr) pair from a call site's argument list (spec.md
// §4.12). Name is empty for positional arguments.
type Arg struct {
	Name string
	Expr Node
}

// ArgValue is one evaluated argument, passed to a Simple callable.
type ArgValue struct {
	Name  string
	Value *object.Value
}

// Callable is implemented by every function-registry entry (spec.md
// §4.12's simple/generic/generator flavors). It lives in expr, not
// function, so expr never imports function — function implements this
// interface instead, the same inversion eval.Evaluable uses for Node.
type Callable interface {
	Name() string
	// CallSimple receives already-evaluated argument values (spec.md:
	// "Simple functions receive evaluated argument values").
	CallSimple(ctx *eval.Context, args []ArgValue) (*object.Value, error)
}

// GenericCallable is implemented by functions that need to evaluate
// their own arguments lazily or treat an argument as an l-value (move,
// unset) — spec.md §4.12's "Generic" flavor.
type GenericCallable interface {
	Callable
	CallGeneric(ctx *eval.Context, args []Arg) (*object.Value, error)
}

// FunctionCall is a call-site node (spec.md §4.12). Arg validation
// (args_check: positionals before named, no duplicate/unknown names) is
// the function package's responsibility at construction time, not this
// node's at eval time.
type FunctionCall struct {
	Base
	Fn   Callable
	Args []Arg
}

func NewFunctionCall(loc eval.Location, fn Callable, args []Arg) *FunctionCall {
	n := &FunctionCall{Fn: fn, Args: args}
	n.loc = loc
	return n
}

func (n *FunctionCall) WalkChildren(order Order, visit func(Node) bool) {
	if order == PreOrder {
		for _, a := range n.Args {
			if !visit(a.Expr) {
				return
			}
		}
		return
	}
	for i := len(n.Args) - 1; i >= 0; i-- {
		if !visit(n.Args[i].Expr) {
			return
		}
	}
}

func (n *FunctionCall) Optimize() Node {
	for i, a := range n.Args {
		n.Args[i].Expr = a.Expr.Optimize()
	}
	return n
}

// Eval implements spec.md §4.12: generic callables evaluate their own
// arguments; simple callables get pre-evaluated values, with argument
// evaluation failure propagating null and reporting via the error
// stack.
func (n *FunctionCall) Eval(ctx *eval.Context) (*object.Value, error) {
	if gc, ok := n.Fn.(GenericCallable); ok {
		v, err := gc.CallGeneric(ctx, n.Args)
		if err != nil {
			pushEvalError(ctx, n.loc, err)
			return nil, err
		}
		return v, nil
	}

	argVals := make([]ArgValue, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := a.Expr.Eval(ctx)
		if err != nil {
			pushEvalError(ctx, n.loc, err)
			return nil, err
		}
		if v == nil {
			pushFalsy(ctx, a.Expr.Loc(), nil)
			return nil, nil
		}
		argVals = append(argVals, ArgValue{Name: a.Name, Value: v})
	}

	v, err := n.Fn.CallSimple(ctx, argVals)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	return v, nil
}
