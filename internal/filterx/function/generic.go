package function

import (
	"fmt"

	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/expr"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// expr-move.c/expr-unset.c/expr-isset.c → move(x), unset(x), isset(x):
// generic functions because they need the raw l-value node, not an
// already-evaluated value (spec.md §4.12: "needed for control-flow
// functions like move, unset").
func registerLValueFuncs(r *Registry) {
	r.Register("move", genericLValue("move", func(ctx *eval.Context, s expr.Settable) (*object.Value, error) {
		return s.Move(ctx)
	}))
	r.Register("unset", genericLValue("unset", func(ctx *eval.Context, s expr.Settable) (*object.Value, error) {
		if err := s.Unset(ctx); err != nil {
			return nil, err
		}
		return object.NewBoolean(true), nil
	}))
	r.Register("isset", genericLValue("isset", func(ctx *eval.Context, s expr.Settable) (*object.Value, error) {
		ok, err := s.IsSet(ctx)
		if err != nil {
			return nil, err
		}
		return object.NewBoolean(ok), nil
	}))
}

func genericLValue(name string, fn func(ctx *eval.Context, s expr.Settable) (*object.Value, error)) Constructor {
	return func(args []expr.Arg) (expr.Callable, error) {
		if err := checkArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		settable, ok := args[0].Expr.(expr.Settable)
		if !ok {
			return nil, fmt.Errorf("filterx: %s: argument must be an l-value expression", name)
		}
		return genericBuiltin{name: name, fn: func(ctx *eval.Context, _ []expr.Arg) (*object.Value, error) {
			return fn(ctx, settable)
		}}, nil
	}
}
