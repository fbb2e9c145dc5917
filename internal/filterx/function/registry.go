// Package function implements FilterX's function registry (spec.md
// §4.12): a name→constructor table, the simple/generic call-site flavors,
// and the built-in function set. It implements expr.Callable/
// expr.GenericCallable rather than expr importing function, the same
// inversion eval.Evaluable uses to keep expr from importing function.
package function

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/expr"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Constructor validates a call site's argument list at construction time
// (spec.md: "argument error... raised at construction where possible")
// and returns the bound callable, or a Go error for bad arity/unknown
// names — never a runtime error-stack frame.
type Constructor func(args []expr.Arg) (expr.Callable, error)

// Registry is a name→constructor table, the direct translation of the
// teacher's RegisterNodeType/GetNodeFactory/RegisteredNodeTypes trio.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry builds an empty registry. Use Default for the built-in set.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds or replaces a constructor, letting callers install
// plugin/user-defined functions alongside the built-ins (spec.md §4.12's
// function registry is open, not a closed enum).
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = ctor
}

// Lookup returns the constructor for name, or nil if unregistered.
func (r *Registry) Lookup(name string) Constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.constructors[name]
}

// Names returns every registered function name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for n := range r.constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Construct validates and builds a call-site Callable for name, matching
// spec.md §6.1's parse-time interface: "a function_args object ... plus
// an out-parameter error record".
func (r *Registry) Construct(name string, args []expr.Arg) (expr.Callable, error) {
	ctor := r.Lookup(name)
	if ctor == nil {
		return nil, fmt.Errorf("filterx: unknown function %q", name)
	}
	return ctor(args)
}

// checkArgs enforces spec.md's args_check contract: positional arguments
// before named ones, no duplicate or unknown names, and an arity within
// [min, max] (max < 0 means unbounded).
func checkArgs(name string, args []expr.Arg, min, max int, allowedNames ...string) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return fmt.Errorf("filterx: %s: expected %s arguments, got %d", name, arityDesc(min, max), len(args))
	}
	seenNamed := false
	seen := make(map[string]bool, len(allowedNames))
	allowed := make(map[string]bool, len(allowedNames))
	for _, n := range allowedNames {
		allowed[n] = true
	}
	for _, a := range args {
		if a.Name == "" {
			if seenNamed {
				return fmt.Errorf("filterx: %s: positional argument after named argument", name)
			}
			continue
		}
		seenNamed = true
		if !allowed[a.Name] {
			return fmt.Errorf("filterx: %s: unknown named argument %q", name, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("filterx: %s: duplicate named argument %q", name, a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

func arityDesc(min, max int) string {
	if max < 0 {
		return fmt.Sprintf("at least %d", min)
	}
	if min == max {
		return fmt.Sprintf("exactly %d", min)
	}
	return fmt.Sprintf("between %d and %d", min, max)
}

// simpleBuiltin adapts a Go func to expr.Callable.
type simpleBuiltin struct {
	name string
	fn   func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error)
}

func (b simpleBuiltin) Name() string { return b.name }
func (b simpleBuiltin) CallSimple(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
	return b.fn(ctx, args)
}

// genericBuiltin adapts a Go func to expr.GenericCallable.
type genericBuiltin struct {
	name string
	fn   func(ctx *eval.Context, args []expr.Arg) (*object.Value, error)
}

func (b genericBuiltin) Name() string { return b.name }
func (b genericBuiltin) CallSimple(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
	return nil, fmt.Errorf("filterx: %s is a generic function and must be dispatched via CallGeneric", b.name)
}
func (b genericBuiltin) CallGeneric(ctx *eval.Context, args []expr.Arg) (*object.Value, error) {
	return b.fn(ctx, args)
}
