package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Compound owns an ordered sequence of statements (spec.md §4.3).
type Compound struct {
	Base
	Statements            []Node
	ReturnValueOfLastExpr bool
}

func NewCompound(loc eval.Location, stmts []Node, returnLast bool) *Compound {
	n := &Compound{Statements: stmts, ReturnValueOfLastExpr: returnLast}
	n.loc = loc
	return n
}

func (n *Compound) WalkChildren(order Order, visit func(Node) bool) {
	if order == PreOrder {
		for _, s := range n.Statements {
			if !visit(s) {
				return
			}
		}
		return
	}
	for i := len(n.Statements) - 1; i >= 0; i-- {
		if !visit(n.Statements[i]) {
			return
		}
	}
}

func (n *Compound) Optimize() Node {
	for i, s := range n.Statements {
		n.Statements[i] = s.Optimize()
	}
	return n
}

// Eval implements spec.md §4.3's evaluation algorithm.
func (n *Compound) Eval(ctx *eval.Context) (*object.Value, error) {
	return n.EvalFrom(ctx, 0)
}

// EvalFrom implements eval_from(start_index), used by the switch
// dispatcher (spec.md §4.3, §4.5) to resume execution at a case target.
func (n *Compound) EvalFrom(ctx *eval.Context, start int) (*object.Value, error) {
	var last *object.Value
	var lastErr error

	for i := start; i < len(n.Statements); i++ {
		stmt := n.Statements[i]
		v, err := stmt.Eval(ctx)
		last, lastErr = v, err

		if err != nil || v == nil {
			pushFalsy(ctx, stmt.Loc(), v)
			return nil, err
		}
		base, hasBase := stmt.(interface{ ignoreFalsy() bool })
		ignoreFalsy := hasBase && base.ignoreFalsy()
		if !ignoreFalsy && !v.Truthy() {
			pushFalsy(ctx, stmt.Loc(), v)
			return nil, nil
		}

		if ctx.Control() != eval.ControlUnset {
			if ctx.ConsumeBreak() {
				return v, nil
			}
			return v, nil // DROP/DONE propagate upward; caller observes ctx.Control()
		}
	}

	if n.ReturnValueOfLastExpr && last != nil {
		return last, lastErr
	}
	return object.NewBoolean(true), nil
}
