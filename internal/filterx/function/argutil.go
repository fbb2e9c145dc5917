package function

import (
	"fmt"

	"github.com/rakunlabs/filterx/internal/filterx/expr"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// positional returns args[i].Value after unmarshaling any lazy
// message-value wrapper, erroring if i is out of range.
func positional(name string, args []expr.ArgValue, i int) (*object.Value, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("filterx: %s: missing argument %d", name, i)
	}
	return expr.Typed(args[i].Value)
}

// optionalNamed looks up a named argument, returning ok=false if absent
// or if its value fails to unmarshal. Positional arguments are not
// consulted; callers that accept either form check the positional slot
// themselves.
func optionalNamed(args []expr.ArgValue, name string) (*object.Value, bool) {
	for _, a := range args {
		if a.Name == name {
			v, err := expr.Typed(a.Value)
			if err != nil {
				return nil, false
			}
			return v, true
		}
	}
	return nil, false
}

func requireString(name string, v *object.Value) (string, error) {
	if v == nil || v.Kind() != object.KindString {
		return "", fmt.Errorf("filterx: %s: expected a string argument", name)
	}
	return v.AsString(), nil
}
