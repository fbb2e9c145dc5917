package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/jsonio"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// typed unmarshals a lazily-tagged message-value into its concrete object,
// the Go analog of spec.md §4.2's filterx_expr_eval_typed: most operators
// (arithmetic, comparison, getattr/subscript, switch selection) need a
// concrete typed value rather than the raw message-value wrapper. A
// JSON-tagged field can't be unmarshaled by the object package alone
// (object is a leaf package with no jsonio dependency, per spec.md §4.16's
// own split between value objects and JSON I/O); this is the one seam
// where expr bridges that gap, and the only place expr imports jsonio
// (the json()/parse_json built-ins live in package function).
// Typed exports typed for packages outside expr (the function package's
// built-ins need the same unmarshal-before-use step on their arguments).
func Typed(v *object.Value) (*object.Value, error) { return typed(v) }

func typed(v *object.Value) (*object.Value, error) {
	if v == nil {
		return nil, nil
	}
	uv, err := v.Unmarshal()
	if err == nil {
		return uv, nil
	}
	if err != object.ErrJSONRequiresParser() {
		return nil, err
	}
	return jsonio.Parse(v.Str())
}
