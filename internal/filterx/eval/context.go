// Package eval implements FilterX's per-evaluation runtime: the Eval
// Context (spec.md §3, item 4), the bounded error stack (§3.8), the
// control modifier (§3.9), and the runtime interface the enclosing
// pipeline drives (§6.2): begin_context/end_context/exec/sync/
// enable_failure_info/get_failure_info.
package eval

import (
	"fmt"
	"log/slog"

	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/filterx/ref"
	"github.com/rakunlabs/filterx/internal/filterx/scope"
	"github.com/rakunlabs/filterx/internal/message"
)

// ErrorFrame is one entry of the bounded error stack (spec.md §3.8:
// "{message, source-expression pointer, associated value, optional info
// string, falsy flag}").
type ErrorFrame struct {
	Message string
	Loc     Location
	Value   *object.Value
	Info    string
	Falsy   bool
}

// Evaluable is implemented by expr.Node so eval never needs to import
// the expr package (expr imports eval, not the reverse).
type Evaluable interface {
	Eval(ctx *Context) (*object.Value, error)
}

// Context is the per-evaluation state described in spec.md §3 item 4.
type Context struct {
	Msg     *message.Message
	Scope   *scope.Scope
	Refs    *ref.Registry
	Handles *scope.Table
	Freezer object.Freezer

	previous *Context

	errStack       []ErrorFrame
	errCap         int
	overflowLogged bool

	control Control

	failureInfoEnabled bool
	failureCollectFalsy bool
	failureInfo         []ErrorFrame
}

// Begin implements begin_context (spec.md §6.2): initializes an eval
// context and binds the scope to the message. previous may be nil for a
// root context.
func Begin(previous *Context, sc *scope.Scope, msg *message.Message, handles *scope.Table, freezer object.Freezer, errCap int) *Context {
	if errCap <= 0 {
		errCap = 8
	}
	return &Context{
		Msg:      msg,
		Scope:    sc,
		Refs:     ref.NewRegistry(),
		Handles:  handles,
		Freezer:  freezer,
		previous: previous,
		errCap:   errCap,
	}
}

// BeginChild implements begin_context for a chained block evaluated
// against the same message within one pipeline traversal (spec.md
// §6.2's previous_ctx? parameter; §3.7/§9 "Scope stacking"). It mirrors
// FILTERX_EVAL_BEGIN_CONTEXT's scope-reuse path: the new block's scope is
// previous's, handed out via Scope.Child() — a write-protected view
// shared by reference until the new block's first mutation clones and
// re-generations it (Scope.MakeWritable), at which point the previous
// block's own non-declared floating variables stop being visible.
// Weak refs, the error cap and the failure-info collector are inherited
// from previous the same way filterx_eval_begin_context shares them
// across a chain; only the root context (previous == nil) frees the
// shared weak-ref registry on End.
func BeginChild(previous *Context, msg *message.Message) *Context {
	return &Context{
		Msg:                 msg,
		Scope:               previous.Scope.Child(),
		Refs:                previous.Refs,
		Handles:             previous.Handles,
		Freezer:             previous.Freezer,
		previous:            previous,
		errCap:              previous.errCap,
		failureInfoEnabled:  previous.failureInfoEnabled,
		failureCollectFalsy: previous.failureCollectFalsy,
	}
}

// Previous returns the enclosing context, or nil for a root context.
func (c *Context) Previous() *Context { return c.previous }

// End implements end_context (spec.md §6.2): tears down, clears weak
// refs. Sync is the caller's responsibility and must happen before End.
// A chained (non-root) context shares its weak-ref registry with
// previous, so only the root context actually clears it — freeing it
// out from under a sibling block still using the same registry would be
// wrong.
func (c *Context) End() {
	if c.previous == nil {
		c.Refs.Clear()
	}
}

// Control returns the current control-flow modifier.
func (c *Context) Control() Control { return c.control }

// SetControl sets the control-flow modifier.
func (c *Context) SetControl(m Control) { c.control = m }

// ConsumeBreak resets a BREAK modifier to UNSET and reports whether one
// was present (spec.md §4.3: "consume BREAK (reset to UNSET)").
func (c *Context) ConsumeBreak() bool {
	if c.control == ControlBreak {
		c.control = ControlUnset
		return true
	}
	return false
}

// EnableFailureInfo turns on the optional failure collector (spec.md
// §6.2). When collectFalsy is false, falsy-short-circuit frames are not
// collected, only hard errors.
func (c *Context) EnableFailureInfo(collectFalsy bool) {
	c.failureInfoEnabled = true
	c.failureCollectFalsy = collectFalsy
}

// FailureInfo returns the frames collected since EnableFailureInfo was
// called.
func (c *Context) FailureInfo() []ErrorFrame { return c.failureInfo }

// PushError records one error-stack frame (spec.md §3.8, §7). Once the
// stack is full, a single "reached maximum error stack size" diagnostic
// is logged and further pushes are silently dropped. Every accepted push
// also emits the bit-exact FILTERX ERROR diagnostic line (spec.md §6.3).
func (c *Context) PushError(loc Location, msg string, val *object.Value, info string, falsy bool) {
	if len(c.errStack) >= c.errCap {
		if !c.overflowLogged {
			slog.Error("reached maximum error stack size")
			c.overflowLogged = true
		}
		return
	}

	frame := ErrorFrame{Message: msg, Loc: loc, Value: val, Info: info, Falsy: falsy}
	c.errStack = append(c.errStack, frame)

	slog.Error(fmt.Sprintf("FILTERX ERROR; err_idx='[%d/%d]', expr='%s', error='%s'",
		len(c.errStack), c.errCap, loc.String(), msg))

	if c.failureInfoEnabled && (c.failureCollectFalsy || !falsy) {
		c.failureInfo = append(c.failureInfo, frame)
	}
}

// ClearErrors empties the error stack, used on context teardown or
// recovery (null-coalesce suppression, spec.md §3.8).
func (c *Context) ClearErrors() {
	c.errStack = c.errStack[:0]
	c.overflowLogged = false
}

// LastError returns the most recently pushed frame, if any.
func (c *Context) LastError() (ErrorFrame, bool) {
	if len(c.errStack) == 0 {
		return ErrorFrame{}, false
	}
	return c.errStack[len(c.errStack)-1], true
}

// PopError discards the most recent frame(s), used by recovery sites
// (spec.md §7: "callers that recover locally...clear the most recent
// error frame(s) and continue").
func (c *Context) PopError() {
	if len(c.errStack) == 0 {
		return
	}
	c.errStack = c.errStack[:len(c.errStack)-1]
}

// Errors returns the live error stack, most recent last.
func (c *Context) Errors() []ErrorFrame { return c.errStack }

// Exec implements exec (spec.md §6.2): evaluates root and maps the
// outcome to Success/Failure/Drop. Done is mapped by the caller via
// Control() since it is a successful short-circuit, not a failure.
func Exec(ctx *Context, root Evaluable) (Result, *object.Value) {
	val, err := root.Eval(ctx)
	if ctx.Control() == ControlDrop {
		return Drop, val
	}
	if err != nil || val == nil {
		return Failure, val
	}
	return Success, val
}
