package function

import (
	"strings"

	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/expr"
	"github.com/rakunlabs/filterx/internal/filterx/jsonio"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Default returns a registry pre-populated with every built-in named in
// SPEC_FULL.md's supplemental-features section (the original_source/
// func-*.c files these are grounded on are listed in each constructor's
// comment).
func Default() *Registry {
	r := NewRegistry()
	registerTypeFuncs(r)
	registerContainerFuncs(r)
	registerStringFuncs(r)
	registerParseFuncs(r)
	registerLValueFuncs(r)
	return r
}

func simple(name string, min, max int, names []string, fn func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error)) Constructor {
	return func(args []expr.Arg) (expr.Callable, error) {
		if err := checkArgs(name, args, min, max, names...); err != nil {
			return nil, err
		}
		return simpleBuiltin{name: name, fn: fn}, nil
	}
}

// func-istype.c → type(value) / istype(value, "typename").
func registerTypeFuncs(r *Registry) {
	r.Register("type", simple("type", 1, 1, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
		v, err := positional("type", args, 0)
		if err != nil {
			return nil, err
		}
		return object.NewString(v.Type().Name), nil
	}))

	r.Register("istype", simple("istype", 2, 2, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
		v, err := positional("istype", args, 0)
		if err != nil {
			return nil, err
		}
		name, err := positional("istype", args, 1)
		if err != nil {
			return nil, err
		}
		wantName, err := requireString("istype", name)
		if err != nil {
			return nil, err
		}
		for t := v.Type(); t != nil; t = t.Parent {
			if t.Name == wantName {
				return object.NewBoolean(true), nil
			}
		}
		return object.NewBoolean(false), nil
	}))
}

// func-keys.c/func-len.c/func-flatten.c.
func registerContainerFuncs(r *Registry) {
	r.Register("keys", simple("keys", 1, 1, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
		v, err := positional("keys", args, 0)
		if err != nil {
			return nil, err
		}
		if v.Kind() != object.KindDict {
			return nil, object.NewTypeError("dict", v)
		}
		keys := v.DictKeys()
		out := make([]*object.Value, len(keys))
		for i, k := range keys {
			out[i] = object.NewString(k)
		}
		return object.NewList(out), nil
	}))

	r.Register("len", simple("len", 1, 1, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
		v, err := positional("len", args, 0)
		if err != nil {
			return nil, err
		}
		n, err := v.Len()
		if err != nil {
			return nil, err
		}
		return object.NewInteger(int64(n)), nil
	}))

	r.Register("flatten", simple("flatten", 1, 1, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
		v, err := positional("flatten", args, 0)
		if err != nil {
			return nil, err
		}
		if v.Kind() != object.KindDict {
			return nil, object.NewTypeError("dict", v)
		}
		var keys []string
		var values []*object.Value
		flattenInto("", v, &keys, &values)
		return object.NewDictFrom(keys, values), nil
	}))
}

// flattenInto recursively walks a dict, appending "a.b.c"-style dotted
// keys for every leaf (or empty-container) value it finds, mirroring the
// source's pre-structured-logging flattening pass.
func flattenInto(prefix string, v *object.Value, keys *[]string, values *[]*object.Value) {
	if v.Kind() != object.KindDict || v.DictLen() == 0 {
		if prefix != "" {
			*keys = append(*keys, prefix)
			*values = append(*values, v)
		}
		return
	}
	for _, k := range v.DictKeys() {
		child, _ := v.DictGet(k)
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child.Kind() == object.KindDict {
			flattenInto(key, child, keys, values)
			continue
		}
		*keys = append(*keys, key)
		*values = append(*values, child)
	}
}

// func-str-transform.c/func-str.c.
func registerStringFuncs(r *Registry) {
	str1 := func(name string, fn func(string) string) Constructor {
		return simple(name, 1, 1, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
			v, err := positional(name, args, 0)
			if err != nil {
				return nil, err
			}
			s, err := requireString(name, v)
			if err != nil {
				return nil, err
			}
			return object.NewString(fn(s)), nil
		})
	}
	r.Register("upper", str1("upper", strings.ToUpper))
	r.Register("lower", str1("lower", strings.ToLower))
	r.Register("strip", str1("strip", strings.TrimSpace))

	str2bool := func(name string, fn func(s, prefix string) bool) Constructor {
		return simple(name, 2, 2, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
			a, err := positional(name, args, 0)
			if err != nil {
				return nil, err
			}
			b, err := positional(name, args, 1)
			if err != nil {
				return nil, err
			}
			sa, err := requireString(name, a)
			if err != nil {
				return nil, err
			}
			sb, err := requireString(name, b)
			if err != nil {
				return nil, err
			}
			return object.NewBoolean(fn(sa, sb)), nil
		})
	}
	r.Register("starts_with", str2bool("starts_with", strings.HasPrefix))
	r.Register("ends_with", str2bool("ends_with", strings.HasSuffix))
	r.Register("contains", str2bool("contains", strings.Contains))
}

// func-parser.c-equivalent parse_kv, plus json()/parse_json (spec.md
// §4.16 wrapped as built-ins).
func registerParseFuncs(r *Registry) {
	r.Register("parse_kv", simple("parse_kv", 1, 3, []string{"value_sep", "pair_sep"},
		func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
			v, err := positional("parse_kv", args, 0)
			if err != nil {
				return nil, err
			}
			s, err := requireString("parse_kv", v)
			if err != nil {
				return nil, err
			}
			valueSep, pairSep := "=", ","
			if nv, ok := optionalNamed(args, "value_sep"); ok {
				if valueSep, err = requireString("parse_kv", nv); err != nil {
					return nil, err
				}
			} else if len(args) > 1 {
				if valueSep, err = requireString("parse_kv", args[1].Value); err != nil {
					return nil, err
				}
			}
			if nv, ok := optionalNamed(args, "pair_sep"); ok {
				if pairSep, err = requireString("parse_kv", nv); err != nil {
					return nil, err
				}
			} else if len(args) > 2 {
				if pairSep, err = requireString("parse_kv", args[2].Value); err != nil {
					return nil, err
				}
			}
			return parseKV(s, valueSep, pairSep), nil
		}))

	r.Register("json", simple("json", 1, 1, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
		v, err := positional("json", args, 0)
		if err != nil {
			return nil, err
		}
		s, err := jsonio.Write(v)
		if err != nil {
			return nil, err
		}
		return object.NewString(s), nil
	}))

	r.Register("parse_json", simple("parse_json", 1, 1, nil, func(ctx *eval.Context, args []expr.ArgValue) (*object.Value, error) {
		v, err := positional("parse_json", args, 0)
		if err != nil {
			return nil, err
		}
		s, err := requireString("parse_json", v)
		if err != nil {
			return nil, err
		}
		return jsonio.Parse(s)
	}))
}

func parseKV(s, valueSep, pairSep string) *object.Value {
	var keys []string
	var values []*object.Value
	for _, pair := range strings.Split(s, pairSep) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, found := strings.Cut(pair, valueSep)
		k = strings.TrimSpace(k)
		if !found {
			keys = append(keys, k)
			values = append(values, object.NewNull())
			continue
		}
		keys = append(keys, k)
		values = append(values, object.NewString(strings.TrimSpace(v)))
	}
	return object.NewDictFrom(keys, values)
}
