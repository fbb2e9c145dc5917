package object

import "fmt"

// TypeError/RangeError/ReadonlyError are plain Go errors returned by vtable
// methods; internal/filterx/eval converts them into error-stack frames
// (spec.md §7 error taxonomy: Type error, Range/domain error, Readonly
// error). Object-level code never touches the error stack directly — that
// keeps this package free of any dependency on eval.

type TypeError struct {
	Expected string
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: expected %s, got %s", e.Expected, e.Actual)
}

func NewTypeError(expected string, actual *Value) error {
	name := "null"
	if actual != nil {
		name = actual.typ.Name
	}
	return &TypeError{Expected: expected, Actual: name}
}

type RangeError struct {
	Msg string
}

func (e *RangeError) Error() string { return "range error: " + e.Msg }

func NewRangeError(msg string) error { return &RangeError{Msg: msg} }

type ReadonlyError struct {
	TypeName string
}

func (e *ReadonlyError) Error() string {
	return fmt.Sprintf("readonly error: %s is readonly", e.TypeName)
}

func NewReadonlyError(v *Value) error { return &ReadonlyError{TypeName: v.typ.Name} }

// NewMacroReadonlyError reports an attempt to assign/unset a read-only
// host-message macro (spec.md §4.10: "macros reject assignment with an
// error").
func NewMacroReadonlyError(name string) error { return &ReadonlyError{TypeName: "macro " + name} }

type LookupError struct {
	Key string
}

func (e *LookupError) Error() string { return "lookup error: no such key " + e.Key }

func NewLookupError(key string) error { return &LookupError{Key: key} }

func errNoLen(v *Value) error {
	return &TypeError{Expected: "list or dict", Actual: v.typ.Name}
}
