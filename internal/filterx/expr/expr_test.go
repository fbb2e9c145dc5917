package expr

import (
	"testing"

	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/freeze"
	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/filterx/scope"
	"github.com/rakunlabs/filterx/internal/message"
)

func loc(text string) eval.Location { return eval.Location{File: "t.fx", Text: text} }

func newTestContext() (*eval.Context, *scope.Table) {
	tbl := scope.NewTable()
	msg := message.New()
	sc := scope.New(msg)
	return eval.Begin(nil, sc, msg, tbl, nil, 8), tbl
}

func strLit(s string) *Literal { return NewLiteral(loc("lit"), object.NewString(s)) }
func intLit(n int64) *Literal  { return NewLiteral(loc("lit"), object.NewInteger(n)) }

func TestCoWIndependenceAcrossAliasedContainers(t *testing.T) {
	ctx, tbl := newTestContext()

	a := NewVariableRef(loc("a"), tbl.FloatingHandle("a"), "a", false)
	b := NewVariableRef(loc("b"), tbl.FloatingHandle("b"), "b", false)

	// a = {"foo": "foovalue"};
	aLit := NewDictLiteral(loc("a-lit"), []string{"foo"}, []Node{strLit("foovalue")})
	if _, err := exec(ctx, a, aLit); err != nil {
		t.Fatalf("assign a: %v", err)
	}

	// b = {"bar": "barvalue"};
	bLit := NewDictLiteral(loc("b-lit"), []string{"bar"}, []Node{strLit("barvalue")})
	if _, err := exec(ctx, b, bLit); err != nil {
		t.Fatalf("assign b: %v", err)
	}

	// a.b = b;
	aDotB := NewGetAttr(loc("a.b"), a, "b")
	if err := aDotB.Assign(ctx, mustEval(t, ctx, b)); err != nil {
		t.Fatalf("assign a.b = b: %v", err)
	}

	// b.baz = "bazvalue";
	bDotBaz := NewGetAttr(loc("b.baz"), b, "baz")
	if err := bDotBaz.Assign(ctx, object.NewString("bazvalue")); err != nil {
		t.Fatalf("assign b.baz: %v", err)
	}

	aJSON := mustJSON(t, mustEval(t, ctx, a))
	bJSON := mustJSON(t, mustEval(t, ctx, b))

	if aJSON != `{"foo":"foovalue","b":{"bar":"barvalue"}}` {
		t.Fatalf("unexpected a json: %s", aJSON)
	}
	if bJSON != `{"bar":"barvalue","baz":"bazvalue"}` {
		t.Fatalf("unexpected b json: %s", bJSON)
	}
}

func exec(ctx *eval.Context, lhs Assignable, rhs Node) (*object.Value, error) {
	n := NewAssign(loc("assign"), lhs, rhs)
	return n.Eval(ctx)
}

func mustEval(t *testing.T, ctx *eval.Context, n Node) *object.Value {
	t.Helper()
	v, err := n.Eval(ctx)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	return v
}

func mustJSON(t *testing.T, v *object.Value) string {
	t.Helper()
	j, err := v.FormatJSON()
	if err != nil {
		t.Fatalf("format json failed: %v", err)
	}
	return j
}

func TestArithmeticCoercionAndNaN(t *testing.T) {
	ctx, _ := newTestContext()

	sum := mustEval(t, ctx, NewArithmetic(loc("3+4"), OpAdd, intLit(3), intLit(4)))
	if sum.Kind() != object.KindInteger || sum.AsInteger() != 7 {
		t.Fatalf("expected integer 7, got %v", sum)
	}

	sumF := mustEval(t, ctx, NewArithmetic(loc("3+4.0"), OpAdd,
		intLit(3), NewLiteral(loc("4.0"), object.NewDouble(4.0))))
	if sumF.Kind() != object.KindDouble || sumF.AsDouble() != 7.0 {
		t.Fatalf("expected double 7.0, got %v", sumF)
	}

	nanSub, err := NewArithmetic(loc("nan-1"), OpSub,
		NewLiteral(loc("nan"), object.NewDouble(nan())), intLit(1)).Eval(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nanSub == nil || nanSub.Kind() != object.KindNull {
		t.Fatalf("expected nan-1 to yield null, got %v", nanSub)
	}

	mod := mustEval(t, ctx, NewArithmetic(loc("7%2"), OpMod, intLit(7), intLit(2)))
	if mod.AsInteger() != 1 {
		t.Fatalf("expected 7%%2 == 1, got %v", mod)
	}

	_, err = NewArithmetic(loc("7.5%2"), OpMod,
		NewLiteral(loc("7.5"), object.NewDouble(7.5)), intLit(2)).Eval(ctx)
	if err == nil {
		t.Fatalf("expected 7.5%%2 to be an evaluation error")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestNullCoalesceAndShortCircuit(t *testing.T) {
	ctx, tbl := newTestContext()

	missing := NewVariableRef(loc("$missing"), tbl.MessageHandle("missing"), "missing", false)
	present := NewVariableRef(loc("$present"), tbl.MessageHandle("present"), "present", false)
	ctx.Msg.Set("present", "x", object.TagString)

	coalesced := mustEval(t, ctx, NewNullCoalesce(loc("??"), missing, strLit("default")))
	if coalesced.AsString() != "default" {
		t.Fatalf("expected default, got %v", coalesced)
	}

	presentVal := mustEval(t, ctx, present)
	uv, err := presentVal.Unmarshal()
	if err != nil || uv.AsString() != "x" {
		t.Fatalf("expected present == x, got %v (err=%v)", uv, err)
	}

	called := false
	sideEffectFn := simpleFn{name: "side_effect", fn: func(ctx *eval.Context, args []ArgValue) (*object.Value, error) {
		called = true
		return object.NewBoolean(true), nil
	}}
	and := NewAnd(loc("and"),
		NewLiteral(loc("true"), object.NewBoolean(false)),
		NewFunctionCall(loc("call"), sideEffectFn, nil))
	result := mustEval(t, ctx, and)
	if result.Truthy() {
		t.Fatalf("expected and() to be false")
	}
	if called {
		t.Fatalf("expected short-circuit to skip the side-effecting call")
	}
}

type simpleFn struct {
	name string
	fn   func(ctx *eval.Context, args []ArgValue) (*object.Value, error)
}

func (f simpleFn) Name() string { return f.name }
func (f simpleFn) CallSimple(ctx *eval.Context, args []ArgValue) (*object.Value, error) {
	return f.fn(ctx, args)
}

func TestSwitchWithDefault(t *testing.T) {
	ctx, tbl := newTestContext()
	x := NewVariableRef(loc("$x"), tbl.FloatingHandle("x"), "x", false)
	r := NewVariableRef(loc("$r"), tbl.MessageHandle("r"), "r", false)

	build := func() *Switch {
		body := NewCompound(loc("body"), []Node{
			NewAssign(loc("r=1"), r, intLit(1)),
			NewAssign(loc("r=2"), r, intLit(2)),
			NewAssign(loc("r=0"), r, intLit(0)),
		}, true)
		cases := []Case{
			{Value: strLit("a"), Target: 0},
			{Value: strLit("b"), Target: 1},
		}
		return NewSwitch(loc("switch"), x, cases, 2, body)
	}

	if _, err := exec(ctx, x, strLit("b")); err != nil {
		t.Fatalf("assign x=b: %v", err)
	}
	if _, err := build().Eval(ctx); err != nil {
		t.Fatalf("switch eval: %v", err)
	}
	rv := mustEval(t, ctx, r)
	uv, _ := rv.Unmarshal()
	if uv.AsInteger() != 2 {
		t.Fatalf("expected r=2 for x==b, got %v", uv)
	}

	ctx2, tbl2 := newTestContext()
	x2 := NewVariableRef(loc("$x"), tbl2.FloatingHandle("x"), "x", false)
	r2 := NewVariableRef(loc("$r"), tbl2.MessageHandle("r"), "r", false)
	body2 := NewCompound(loc("body"), []Node{
		NewAssign(loc("r=1"), r2, intLit(1)),
		NewAssign(loc("r=2"), r2, intLit(2)),
		NewAssign(loc("r=0"), r2, intLit(0)),
	}, true)
	cases2 := []Case{{Value: strLit("a"), Target: 0}, {Value: strLit("b"), Target: 1}}
	sw2 := NewSwitch(loc("switch"), x2, cases2, 2, body2)

	if _, err := exec(ctx2, x2, strLit("c")); err != nil {
		t.Fatalf("assign x2=c: %v", err)
	}
	if _, err := sw2.Eval(ctx2); err != nil {
		t.Fatalf("switch eval: %v", err)
	}
	rv2 := mustEval(t, ctx2, r2)
	uv2, _ := rv2.Unmarshal()
	if uv2.AsInteger() != 0 {
		t.Fatalf("expected r=0 for x==c (default), got %v", uv2)
	}
}

func TestDeepPathAssignmentCreatesIntermediates(t *testing.T) {
	ctx, tbl := newTestContext()
	a := NewVariableRef(loc("a"), tbl.FloatingHandle("a"), "a", false)

	// a = {};
	if _, err := exec(ctx, a, NewDictLiteral(loc("{}"), nil, nil)); err != nil {
		t.Fatalf("assign a={}: %v", err)
	}

	dpath := NewDPathLValue(loc("a.b.c"), a, []DPathElement{
		{LiteralKey: "b"},
		{LiteralKey: "c"},
	}, false)
	if err := dpath.Assign(ctx, object.NewInteger(5)); err != nil {
		t.Fatalf("dpath assign: %v", err)
	}

	aVal := mustEval(t, ctx, a)
	j := mustJSON(t, aVal)
	if j != `{"b":{"c":5}}` {
		t.Fatalf("unexpected json after deep-path assign: %s", j)
	}
}

func TestFreezeLiteralsInternsAcrossTreeAndIsIdempotent(t *testing.T) {
	store := freeze.New()

	left := strLit("shared")
	right := strLit("shared")
	tree := NewListLiteral(loc("list"), []Node{left, right, intLit(7)})

	FreezeLiterals(tree, store)

	if !left.Value.IsFrozen() || !right.Value.IsFrozen() {
		t.Fatalf("expected every literal reached via WalkChildren to be frozen")
	}
	if left.Value != right.Value {
		t.Fatalf("expected two equal-content literals to intern to the same value, got distinct pointers")
	}
	countAfterFirst := store.Count()

	// Running the pass again (e.g. if a driver re-optimizes) must not
	// grow the store: freeze(freeze(v)) == freeze(v).
	FreezeLiterals(tree, store)
	if store.Count() != countAfterFirst {
		t.Fatalf("expected re-running FreezeLiterals to be a no-op, count went from %d to %d", countAfterFirst, store.Count())
	}
}

func TestErrorStackBoundedAcrossNestedFailures(t *testing.T) {
	ctx, _ := newTestContext()

	var n Node = NewLiteral(loc("fail"), nil)
	// Nine getattr failures, each on a null base, to drive nine pushes.
	for i := 0; i < 9; i++ {
		n = NewGetAttr(loc("nest"), n, "x")
	}
	_, _ = n.Eval(ctx)

	if len(ctx.Errors()) != 8 {
		t.Fatalf("expected error stack capped at 8 entries, got %d", len(ctx.Errors()))
	}
}
