package jsonio

import "github.com/rakunlabs/filterx/internal/filterx/object"

// Write renders v as a single JSON document, delegating entirely to the
// value's own FormatJSON vtable method (spec.md §4.16: "The writer
// delegates to format_json virtual methods and always produces a single
// root object").
func Write(v *object.Value) (string, error) {
	return v.FormatJSON()
}
