package jsonio

import (
	"strconv"

	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// frame is one open container while the converter walks the token stream;
// kept on an explicit stack so building nested structures never recurses
// (spec.md §4.16: "the converter walks tokens with a cursor").
type frame struct {
	isList bool

	items []*object.Value

	keys   []string
	values []*object.Value

	havePendingKey bool
	pendingKey     string
}

func (f *frame) attach(v *object.Value) {
	if f.isList {
		f.items = append(f.items, v)
		return
	}
	if !f.havePendingKey {
		panic("jsonio: attach called on dict frame without a pending key")
	}
	f.keys = append(f.keys, f.pendingKey)
	f.values = append(f.values, v)
	f.havePendingKey = false
}

func (f *frame) build() *object.Value {
	if f.isList {
		return object.NewList(f.items)
	}
	return object.NewDictFrom(f.keys, f.values)
}

// Parse converts a JSON document into a FilterX value tree (spec.md §4.16).
func Parse(s string) (*object.Value, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	cur := 0
	next := func() token {
		t := toks[cur]
		cur++
		return t
	}
	peek := func() token { return toks[cur] }

	var stack []*frame
	var result *object.Value
	haveResult := false

	emit := func(v *object.Value) error {
		if len(stack) == 0 {
			if haveResult {
				return invalidError(s, peek().pos, "multiple root values")
			}
			result = v
			haveResult = true
			return nil
		}
		top := stack[len(stack)-1]
		top.attach(v)
		return nil
	}

	for {
		t := peek()
		if t.kind == tokEOF {
			if len(stack) > 0 {
				return nil, incompleteError("unterminated container")
			}
			if !haveResult {
				return nil, incompleteError("empty input")
			}
			return result, nil
		}

		switch t.kind {
		case tokLBrace:
			next()
			stack = append(stack, &frame{})
			if peek().kind == tokRBrace {
				next()
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if err := emit(f.build()); err != nil {
					return nil, err
				}
				if err := afterValue(s, toks, &cur, stack); err != nil {
					return nil, err
				}
			} else {
				if err := expectDictKey(s, toks, &cur); err != nil {
					return nil, err
				}
			}
		case tokLBracket:
			next()
			stack = append(stack, &frame{isList: true})
			if peek().kind == tokRBracket {
				next()
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if err := emit(f.build()); err != nil {
					return nil, err
				}
				if err := afterValue(s, toks, &cur, stack); err != nil {
					return nil, err
				}
			}
		case tokRBrace, tokRBracket:
			next()
			if len(stack) == 0 {
				return nil, invalidError(s, t.pos, "unmatched closing bracket")
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if err := emit(f.build()); err != nil {
				return nil, err
			}
			if err := afterValue(s, toks, &cur, stack); err != nil {
				return nil, err
			}
		case tokString, tokNumber, tokTrue, tokFalse, tokNull:
			v, err := scalarValue(next())
			if err != nil {
				return nil, err
			}
			if len(stack) > 0 && !stack[len(stack)-1].isList && !stack[len(stack)-1].havePendingKey {
				// this scalar is a dict key, not a value
				if v.Kind() != object.KindString {
					return nil, invalidError(s, t.pos, "dict key must be a string")
				}
				stack[len(stack)-1].pendingKey = v.AsString()
				stack[len(stack)-1].havePendingKey = true
				if err := expectColon(s, toks, &cur); err != nil {
					return nil, err
				}
				continue
			}
			if err := emit(v); err != nil {
				return nil, err
			}
			if err := afterValue(s, toks, &cur, stack); err != nil {
				return nil, err
			}
		default:
			return nil, invalidError(s, t.pos, "unexpected token")
		}
	}
}

func scalarValue(t token) (*object.Value, error) {
	switch t.kind {
	case tokString:
		return object.NewString(t.text), nil
	case tokTrue:
		return object.NewBoolean(true), nil
	case tokFalse:
		return object.NewBoolean(false), nil
	case tokNull:
		return object.NewNull(), nil
	case tokNumber:
		if n, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return object.NewInteger(n), nil
		}
		d, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, invalidError(t.text, 0, "malformed number")
		}
		return object.NewDouble(d), nil
	}
	return nil, invalidError(t.text, t.pos, "not a scalar token")
}

// expectColon consumes a ':' after a dict key; called with cur already
// past the key token.
func expectColon(s string, toks []token, cur *int) error {
	t := toks[*cur]
	if t.kind == tokEOF {
		return incompleteError("expected ':' after key")
	}
	if t.kind != tokColon {
		return invalidError(s, t.pos, "expected ':' after dict key")
	}
	*cur++
	return nil
}

// expectDictKey is called right after an opening '{' for a non-empty dict;
// the next token must be a string key, which the main loop's scalar case
// then consumes.
func expectDictKey(s string, toks []token, cur *int) error {
	t := toks[*cur]
	if t.kind == tokEOF {
		return incompleteError("expected dict key")
	}
	if t.kind != tokString {
		return invalidError(s, t.pos, "expected string dict key")
	}
	return nil
}

// afterValue consumes the separator following a completed value: a comma
// (continue the enclosing container) or nothing (enclosing container,
// if any, will see its own closing bracket next).
func afterValue(s string, toks []token, cur *int, stack []*frame) error {
	t := toks[*cur]
	if t.kind == tokEOF {
		if len(stack) > 0 {
			return incompleteError("unterminated container")
		}
		return nil
	}
	if t.kind != tokComma {
		return nil
	}
	*cur++
	if len(stack) == 0 {
		return invalidError(s, t.pos, "unexpected ',' outside any container")
	}
	top := stack[len(stack)-1]
	if !top.isList {
		return expectDictKey(s, toks, cur)
	}
	return nil
}
