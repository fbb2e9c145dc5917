package expr

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// TemplatePart is one piece of a compiled template: either literal text
// or a JS expression to interpolate (spec.md §4.11: "holds a compiled
// host-template"). The JS sub-language is scoped to SPEC_FULL.md's
// domain stack decision to use goja solely for this interpolation
// feature, never to execute FilterX expressions themselves.
type TemplatePart struct {
	Literal string // used when JSExpr == ""
	JSExpr  string
}

// Template implements spec.md §4.11: formats the compiled parts against
// the current message and returns a message-value. The spec's "scratch
// buffer" allocation discipline is an implementation-level optimization
// this Go port doesn't need (the GC reclaims the builder); what matters
// observably is that the result is read-only-by-convention and not
// retained past the statement, which callers already honor by treating
// every Eval result as transient unless explicitly stored.
type Template struct {
	Base
	NoChildren
	Parts []TemplatePart
}

func NewTemplate(loc eval.Location, parts []TemplatePart) *Template {
	n := &Template{Parts: parts}
	n.loc = loc
	return n
}

func (n *Template) Optimize() Node { return n }

func (n *Template) Eval(ctx *eval.Context) (*object.Value, error) {
	var hasJS bool
	for _, p := range n.Parts {
		if p.JSExpr != "" {
			hasJS = true
			break
		}
	}

	var sb strings.Builder
	var vm *goja.Runtime
	if hasJS {
		vm = goja.New()
		for _, name := range ctx.Msg.Names() {
			mv := ctx.Msg.AsMessageValue(name)
			if mv == nil {
				continue
			}
			if err := vm.Set(name, templateJSValue(mv)); err != nil {
				err = fmt.Errorf("template: bind %s: %w", name, err)
				pushEvalError(ctx, n.loc, err)
				return nil, err
			}
		}
	}

	for _, p := range n.Parts {
		if p.JSExpr == "" {
			sb.WriteString(p.Literal)
			continue
		}
		res, err := vm.RunString(p.JSExpr)
		if err != nil {
			err = fmt.Errorf("template: %w", err)
			pushEvalError(ctx, n.loc, err)
			return nil, err
		}
		sb.WriteString(res.String())
	}

	return object.NewMessageValue(sb.String(), object.TagString), nil
}

// templateJSValue converts a message-value into the unmarshaled Go
// value goja binds as a global, so JS expressions see native
// strings/numbers/bools rather than opaque wrappers.
func templateJSValue(v *object.Value) any {
	uv, err := v.Unmarshal()
	if err != nil || uv == nil {
		return nil
	}
	switch uv.Kind() {
	case object.KindString:
		return uv.AsString()
	case object.KindBytes, object.KindProtobuf:
		return uv.AsBytes()
	case object.KindInteger:
		return uv.AsInteger()
	case object.KindDouble:
		return uv.AsDouble()
	case object.KindBoolean:
		return uv.AsBoolean()
	case object.KindNull:
		return nil
	default:
		j, err := uv.FormatJSON()
		if err != nil {
			return uv.Str()
		}
		return j
	}
}
