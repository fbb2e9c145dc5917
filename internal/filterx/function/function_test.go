package function

import (
	"testing"

	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/expr"
	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/filterx/scope"
	"github.com/rakunlabs/filterx/internal/message"
)

func loc(text string) eval.Location { return eval.Location{File: "t.fx", Text: text} }

func newTestContext() *eval.Context {
	msg := message.New()
	sc := scope.New(msg)
	return eval.Begin(nil, sc, msg, scope.NewTable(), nil, 8)
}

func lit(v *object.Value) *expr.Literal { return expr.NewLiteral(loc("lit"), v) }

func callSimple(t *testing.T, r *Registry, ctx *eval.Context, name string, args ...expr.Arg) *object.Value {
	t.Helper()
	fn, err := r.Construct(name, args)
	if err != nil {
		t.Fatalf("construct %s: %v", name, err)
	}
	call := expr.NewFunctionCall(loc(name), fn, args)
	v, err := call.Eval(ctx)
	if err != nil {
		t.Fatalf("eval %s: %v", name, err)
	}
	return v
}

func TestTypeAndIsType(t *testing.T) {
	r := Default()
	ctx := newTestContext()

	v := callSimple(t, r, ctx, "type", expr.Arg{Expr: lit(object.NewInteger(5))})
	if v.AsString() != "integer" {
		t.Fatalf("expected integer, got %v", v)
	}

	ok := callSimple(t, r, ctx, "istype",
		expr.Arg{Expr: lit(object.NewString("x"))},
		expr.Arg{Expr: lit(object.NewString("string"))})
	if !ok.Truthy() {
		t.Fatalf("expected istype(string, \"string\") to be true")
	}
}

func TestKeysLenFlatten(t *testing.T) {
	r := Default()
	ctx := newTestContext()

	dict := object.NewDictFrom([]string{"a", "b"}, []*object.Value{
		object.NewInteger(1),
		object.NewDictFrom([]string{"c"}, []*object.Value{object.NewInteger(2)}),
	})

	keys := callSimple(t, r, ctx, "keys", expr.Arg{Expr: lit(dict)})
	if keys.ListLen() != 2 {
		t.Fatalf("expected 2 keys, got %d", keys.ListLen())
	}

	ln := callSimple(t, r, ctx, "len", expr.Arg{Expr: lit(dict)})
	if ln.AsInteger() != 2 {
		t.Fatalf("expected len 2, got %v", ln)
	}

	flat := callSimple(t, r, ctx, "flatten", expr.Arg{Expr: lit(dict)})
	if flat.DictLen() != 2 {
		t.Fatalf("expected 2 flattened entries, got %d", flat.DictLen())
	}
	v, ok := flat.DictGet("b.c")
	if !ok || v.AsInteger() != 2 {
		t.Fatalf("expected flattened key b.c == 2, got %v, %v", v, ok)
	}
}

func TestStringFuncs(t *testing.T) {
	r := Default()
	ctx := newTestContext()

	up := callSimple(t, r, ctx, "upper", expr.Arg{Expr: lit(object.NewString("hi"))})
	if up.AsString() != "HI" {
		t.Fatalf("expected HI, got %v", up)
	}

	sw := callSimple(t, r, ctx, "starts_with",
		expr.Arg{Expr: lit(object.NewString("hello"))},
		expr.Arg{Expr: lit(object.NewString("he"))})
	if !sw.Truthy() {
		t.Fatalf("expected starts_with true")
	}
}

func TestParseKV(t *testing.T) {
	r := Default()
	ctx := newTestContext()

	d := callSimple(t, r, ctx, "parse_kv", expr.Arg{Expr: lit(object.NewString("a=1,b=2"))})
	v, ok := d.DictGet("a")
	if !ok || v.AsString() != "1" {
		t.Fatalf("expected a=1, got %v, %v", v, ok)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	r := Default()
	ctx := newTestContext()

	dict := object.NewDictFrom([]string{"a"}, []*object.Value{object.NewInteger(1)})
	s := callSimple(t, r, ctx, "json", expr.Arg{Expr: lit(dict)})
	if s.AsString() != `{"a":1}` {
		t.Fatalf("unexpected json: %s", s.AsString())
	}

	back := callSimple(t, r, ctx, "parse_json", expr.Arg{Expr: lit(s)})
	v, ok := back.DictGet("a")
	if !ok || v.AsInteger() != 1 {
		t.Fatalf("unexpected parse_json roundtrip: %v, %v", v, ok)
	}
}

func TestMoveUnsetIsset(t *testing.T) {
	r := Default()
	ctx := newTestContext()
	tbl := scope.NewTable()
	ctx2 := eval.Begin(nil, scope.New(ctx.Msg), ctx.Msg, tbl, nil, 8)

	a := expr.NewVariableRef(loc("a"), tbl.FloatingHandle("a"), "a", false)
	assign := expr.NewAssign(loc("a=1"), a, lit(object.NewInteger(1)))
	if _, err := assign.Eval(ctx2); err != nil {
		t.Fatalf("assign: %v", err)
	}

	isSet := callSimple(t, r, ctx2, "isset", expr.Arg{Expr: a})
	if !isSet.Truthy() {
		t.Fatalf("expected isset(a) true")
	}

	moved := callSimple(t, r, ctx2, "move", expr.Arg{Expr: a})
	if moved.AsInteger() != 1 {
		t.Fatalf("expected moved value 1, got %v", moved)
	}

	isSetAfter := callSimple(t, r, ctx2, "isset", expr.Arg{Expr: a})
	if isSetAfter.Truthy() {
		t.Fatalf("expected isset(a) false after move")
	}
}
