package eval

import (
	"testing"

	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/filterx/scope"
	"github.com/rakunlabs/filterx/internal/message"
)

type constExpr struct {
	v   *object.Value
	err error
}

func (c constExpr) Eval(ctx *Context) (*object.Value, error) { return c.v, c.err }

func newTestContext() (*Context, *scope.Table) {
	tbl := scope.NewTable()
	sc := scope.New(message.New())
	return Begin(nil, sc, message.New(), tbl, nil, 8), tbl
}

func TestErrorStackBoundedToEight(t *testing.T) {
	ctx, _ := newTestContext()

	for i := 0; i < 9; i++ {
		ctx.PushError(Location{File: "t.fx", StartLine: i + 1}, "boom", nil, "", false)
	}

	if len(ctx.Errors()) != 8 {
		t.Fatalf("expected error stack capped at 8, got %d", len(ctx.Errors()))
	}
	if !ctx.overflowLogged {
		t.Fatalf("expected overflow to be logged exactly once")
	}
}

func TestConsumeBreakResetsControl(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.SetControl(ControlBreak)

	if !ctx.ConsumeBreak() {
		t.Fatalf("expected ConsumeBreak to report a pending BREAK")
	}
	if ctx.Control() != ControlUnset {
		t.Fatalf("expected control to reset to UNSET, got %v", ctx.Control())
	}
	if ctx.ConsumeBreak() {
		t.Fatalf("expected no BREAK pending on second call")
	}
}

func TestExecMapsDropAndFailureAndSuccess(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.SetControl(ControlDrop)
	res, _ := Exec(ctx, constExpr{v: object.NewBoolean(true)})
	if res != Drop {
		t.Fatalf("expected Drop, got %v", res)
	}

	ctx2, _ := newTestContext()
	res, val := Exec(ctx2, constExpr{v: nil})
	if res != Failure || val != nil {
		t.Fatalf("expected Failure with nil value, got %v %v", res, val)
	}

	ctx3, _ := newTestContext()
	res, val = Exec(ctx3, constExpr{v: object.NewBoolean(true)})
	if res != Success || val == nil {
		t.Fatalf("expected Success, got %v %v", res, val)
	}
}

func TestSyncWritesBackDirtyMessageTiedVariables(t *testing.T) {
	tbl := scope.NewTable()
	msg := message.New()
	sc := scope.New(msg)
	ctx := Begin(nil, sc, msg, tbl, nil, 8)

	h := tbl.MessageHandle("r")
	sc.Set(h, object.NewInteger(2), false)

	if err := ctx.Sync(); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}

	f, ok := msg.Get("r")
	if !ok || f.Repr != "2" || f.Tag != object.TagInteger {
		t.Fatalf("expected message field r=2 INTEGER, got %#v ok=%v", f, ok)
	}
	if sc.Dirty() {
		t.Fatalf("expected scope clean after sync")
	}
}

func TestBeginChildSharesScopeUntilFirstWrite(t *testing.T) {
	tbl := scope.NewTable()
	msg := message.New()
	sc := scope.New(msg)
	parent := Begin(nil, sc, msg, tbl, nil, 8)

	hFloat := tbl.FloatingHandle("x")
	hDecl := tbl.FloatingHandle("y")
	sc.Set(hFloat, object.NewInteger(1), false)
	sc.Set(hDecl, object.NewInteger(2), true)

	child := BeginChild(parent, msg)
	if child.Refs != parent.Refs {
		t.Fatalf("expected chained context to share the weak-ref registry with previous")
	}
	if child.Previous() != parent {
		t.Fatalf("expected Previous() to return the context passed to BeginChild")
	}

	// Before the child writes anything its scope is still the parent's,
	// so both floating variables are visible.
	if _, ok := child.Scope.Get(hFloat); !ok {
		t.Fatalf("expected non-declared floating variable visible before the child's first write")
	}

	// First write forces MakeWritable to clone and bump the generation
	// (spec.md §3.7), discarding the parent block's own non-declared
	// floating variable from the child's view.
	hOther := tbl.FloatingHandle("z")
	child.Scope = child.Scope.MakeWritable()
	child.Scope.Set(hOther, object.NewInteger(3), false)

	if _, ok := child.Scope.Get(hFloat); ok {
		t.Fatalf("expected non-declared floating variable from the parent block to be invisible after the child's first write")
	}
	if v, ok := child.Scope.Get(hDecl); !ok || v.Value.AsInteger() != 2 {
		t.Fatalf("expected declared floating variable to survive the block boundary, got %#v ok=%v", v, ok)
	}

	// The parent's own scope is untouched by the child's clone-on-write.
	if v, ok := sc.Get(hFloat); !ok || v.Value.AsInteger() != 1 {
		t.Fatalf("expected parent scope to keep its own value for x, got %#v ok=%v", v, ok)
	}

	// Only the root context's End() clears the shared weak-ref registry.
	child.End()
	parent.End()
}

func TestSyncRemovesWhiteoutFields(t *testing.T) {
	tbl := scope.NewTable()
	msg := message.New()
	msg.Set("r", "1", object.TagInteger)
	sc := scope.New(msg)
	ctx := Begin(nil, sc, msg, tbl, nil, 8)

	h := tbl.MessageHandle("r")
	sc.Unset(h)

	if err := ctx.Sync(); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if msg.Has("r") {
		t.Fatalf("expected field r to be removed after unset+sync")
	}
}
