package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// ArithOp names a binary arithmetic operator (spec.md §3's "arithmetic
// ... operators").
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

// Arithmetic is a binary arithmetic expression; Op selects the operator
// (OpAdd/OpSub/OpMul/OpDiv/OpMod). No node or function here carries the
// names subs/mult/div/mod/uminus.
type Arithmetic struct {
	Base
	Op          ArithOp
	Left, Right Node
}

func NewArithmetic(loc eval.Location, op ArithOp, left, right Node) *Arithmetic {
	n := &Arithmetic{Op: op, Left: left, Right: right}
	n.loc = loc
	return n
}

func (n *Arithmetic) WalkChildren(order Order, visit func(Node) bool) {
	if order == PreOrder {
		if !visit(n.Left) {
			return
		}
		visit(n.Right)
		return
	}
	if !visit(n.Right) {
		return
	}
	visit(n.Left)
}

func (n *Arithmetic) Optimize() Node {
	n.Left = n.Left.Optimize()
	n.Right = n.Right.Optimize()
	return n
}

func (n *Arithmetic) Eval(ctx *eval.Context) (*object.Value, error) {
	a, err := n.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		pushFalsy(ctx, n.Left.Loc(), nil)
		return nil, nil
	}
	b, err := n.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		pushFalsy(ctx, n.Right.Loc(), nil)
		return nil, nil
	}

	a, err = typed(a)
	if err != nil {
		pushEvalError(ctx, n.Left.Loc(), err)
		return nil, err
	}
	b, err = typed(b)
	if err != nil {
		pushEvalError(ctx, n.Right.Loc(), err)
		return nil, err
	}

	var v *object.Value
	switch n.Op {
	case OpAdd:
		v, err = a.Add(b)
	case OpSub:
		v, err = object.Subtract(a, b)
	case OpMul:
		v, err = object.Multiply(a, b)
	case OpDiv:
		v, err = object.Divide(a, b)
	case OpMod:
		v, err = object.Modulo(a, b)
	}
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	return v, nil
}

// Negate is the unary minus; the node is named Negate, not uminus.
type Negate struct {
	Base
	Operand Node
}

func NewNegate(loc eval.Location, operand Node) *Negate {
	n := &Negate{Operand: operand}
	n.loc = loc
	return n
}

func (n *Negate) WalkChildren(order Order, visit func(Node) bool) { visit(n.Operand) }

func (n *Negate) Optimize() Node {
	n.Operand = n.Operand.Optimize()
	return n
}

func (n *Negate) Eval(ctx *eval.Context) (*object.Value, error) {
	a, err := n.Operand.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		pushFalsy(ctx, n.loc, nil)
		return nil, nil
	}
	a, err = typed(a)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	v, err := object.Negate(a)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	return v, nil
}

// CompareOp names a binary comparison operator.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

// Compare is a binary comparison expression (spec.md §3's "comparison
// ... operators"). Numeric operands compare numerically (mixed
// int/double coerces like arithmetic); otherwise operands compare by
// kind and repr for equality/inequality, two strings order lexically
// (byte order), and ordering any other operands is a type error.
type Compare struct {
	Base
	Op          CompareOp
	Left, Right Node
}

func NewCompare(loc eval.Location, op CompareOp, left, right Node) *Compare {
	n := &Compare{Op: op, Left: left, Right: right}
	n.loc = loc
	return n
}

func (n *Compare) WalkChildren(order Order, visit func(Node) bool) {
	if order == PreOrder {
		if !visit(n.Left) {
			return
		}
		visit(n.Right)
		return
	}
	if !visit(n.Right) {
		return
	}
	visit(n.Left)
}

func (n *Compare) Optimize() Node {
	n.Left = n.Left.Optimize()
	n.Right = n.Right.Optimize()
	return n
}

func (n *Compare) Eval(ctx *eval.Context) (*object.Value, error) {
	a, err := n.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		pushFalsy(ctx, n.Left.Loc(), nil)
		return nil, nil
	}
	b, err := n.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		pushFalsy(ctx, n.Right.Loc(), nil)
		return nil, nil
	}
	a, err = typed(a)
	if err != nil {
		pushEvalError(ctx, n.Left.Loc(), err)
		return nil, err
	}
	b, err = typed(b)
	if err != nil {
		pushEvalError(ctx, n.Right.Loc(), err)
		return nil, err
	}

	result, err := compareValues(n.Op, a, b)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	return object.NewBoolean(result), nil
}

func compareValues(op CompareOp, a, b *object.Value) (bool, error) {
	if isNumeric(a) && isNumeric(b) {
		af, bf := numericValue(a), numericValue(b)
		switch op {
		case CmpEq:
			return af == bf, nil
		case CmpNe:
			return af != bf, nil
		case CmpLt:
			return af < bf, nil
		case CmpLe:
			return af <= bf, nil
		case CmpGt:
			return af > bf, nil
		case CmpGe:
			return af >= bf, nil
		}
	}

	switch op {
	case CmpEq:
		return a.Kind() == b.Kind() && a.Repr() == b.Repr(), nil
	case CmpNe:
		return !(a.Kind() == b.Kind() && a.Repr() == b.Repr()), nil
	default:
		if a.Kind() == object.KindString && b.Kind() == object.KindString {
			switch op {
			case CmpLt:
				return a.AsString() < b.AsString(), nil
			case CmpLe:
				return a.AsString() <= b.AsString(), nil
			case CmpGt:
				return a.AsString() > b.AsString(), nil
			case CmpGe:
				return a.AsString() >= b.AsString(), nil
			}
		}
		return false, object.NewTypeError("comparable operands", b)
	}
}

func isNumeric(v *object.Value) bool {
	return v.Kind() == object.KindInteger || v.Kind() == object.KindBoolean || v.Kind() == object.KindDouble
}

func numericValue(v *object.Value) float64 {
	switch v.Kind() {
	case object.KindInteger:
		return float64(v.AsInteger())
	case object.KindDouble:
		return v.AsDouble()
	case object.KindBoolean:
		if v.AsBoolean() {
			return 1
		}
		return 0
	}
	return 0
}

// Concat implements string concatenation via the `+` operator's string
// overload (spec.md §3.4: StringType.Add concatenates; this node exists
// separately from Arithmetic so a parser can route `+` on two strings
// here without going through numeric coercion).
type Concat struct {
	Base
	Left, Right Node
}

func NewConcat(loc eval.Location, left, right Node) *Concat {
	n := &Concat{Left: left, Right: right}
	n.loc = loc
	return n
}

func (n *Concat) WalkChildren(order Order, visit func(Node) bool) {
	if order == PreOrder {
		if !visit(n.Left) {
			return
		}
		visit(n.Right)
		return
	}
	if !visit(n.Right) {
		return
	}
	visit(n.Left)
}

func (n *Concat) Optimize() Node {
	n.Left = n.Left.Optimize()
	n.Right = n.Right.Optimize()
	return n
}

func (n *Concat) Eval(ctx *eval.Context) (*object.Value, error) {
	a, err := n.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		pushFalsy(ctx, n.Left.Loc(), nil)
		return nil, nil
	}
	b, err := n.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		pushFalsy(ctx, n.Right.Loc(), nil)
		return nil, nil
	}
	a, err = typed(a)
	if err != nil {
		pushEvalError(ctx, n.Left.Loc(), err)
		return nil, err
	}
	b, err = typed(b)
	if err != nil {
		pushEvalError(ctx, n.Right.Loc(), err)
		return nil, err
	}
	v, err := a.Add(b)
	if err != nil {
		pushEvalError(ctx, n.loc, err)
		return nil, err
	}
	return v, nil
}
