package object

import "strings"

// orderedDict is a string-keyed, insertion-ordered map (spec.md §3.4: "dict
// (insertion-ordered string-keyed map)").
type orderedDict struct {
	order []string
	byKey map[string]*Value
}

func newOrderedDict() *orderedDict {
	return &orderedDict{byKey: make(map[string]*Value)}
}

func (d *orderedDict) get(key string) (*Value, bool) {
	v, ok := d.byKey[key]
	return v, ok
}

func (d *orderedDict) set(key string, v *Value) {
	if _, exists := d.byKey[key]; !exists {
		d.order = append(d.order, key)
	}
	d.byKey[key] = v
}

func (d *orderedDict) delete(key string) {
	if _, exists := d.byKey[key]; !exists {
		return
	}
	delete(d.byKey, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *orderedDict) clone() *orderedDict {
	nd := &orderedDict{
		order: append([]string(nil), d.order...),
		byKey: make(map[string]*Value, len(d.byKey)),
	}
	for k, v := range d.byKey {
		nd.byKey[k] = v
	}
	return nd
}

var (
	ListType *Type
	DictType *Type
)

func init() {
	ListType = RegisterType(&Type{
		Name:    "list",
		Kind:    KindList,
		Mutable: true,
		Methods: Methods{
			Truthy: func(v *Value) bool { return len(v.list) > 0 },
			Clone: func(v *Value) *Value {
				return NewList(append([]*Value(nil), v.list...))
			},
			Repr:       reprList,
			Str:        reprList,
			FormatJSON: formatJSONList,
			Len: func(v *Value) (uint64, error) {
				return uint64(len(v.list)), nil
			},
			GetSub: func(v *Value, key *Value) (*Value, error) {
				idx, err := listIndex(v, key)
				if err != nil {
					return nil, err
				}
				return v.list[idx], nil
			},
			SetSub: func(v *Value, key *Value, nv *Value) error {
				if v.IsReadonly() {
					return NewReadonlyError(v)
				}
				if key.Kind() != KindInteger {
					return NewTypeError("integer", key)
				}
				idx := int(key.i)
				if idx == len(v.list) {
					v.list = append(v.list, nv)
					return nil
				}
				if idx < 0 {
					idx += len(v.list)
				}
				if idx < 0 || idx >= len(v.list) {
					return NewRangeError("list index out of range")
				}
				v.list[idx] = nv
				return nil
			},
			IsKeySet: func(v *Value, key *Value) (bool, error) {
				idx, err := listIndex(v, key)
				if err != nil {
					return false, nil
				}
				return idx >= 0, nil
			},
			UnsetKey: func(v *Value, key *Value) error {
				idx, err := listIndex(v, key)
				if err != nil {
					return err
				}
				v.list = append(v.list[:idx], v.list[idx+1:]...)
				return nil
			},
			MoveKey: func(v *Value, key *Value) (*Value, error) {
				idx, err := listIndex(v, key)
				if err != nil {
					return nil, err
				}
				moved := v.list[idx]
				v.list = append(v.list[:idx], v.list[idx+1:]...)
				return moved, nil
			},
			Add: func(a, b *Value) (*Value, error) {
				if b.Kind() != KindList {
					return nil, NewTypeError("list", b)
				}
				out := make([]*Value, 0, len(a.list)+len(b.list))
				out = append(out, a.list...)
				out = append(out, b.list...)
				return NewList(out), nil
			},
			AddInPlace: func(a, b *Value) (*Value, error) {
				if b.Kind() != KindList {
					return nil, NewTypeError("list", b)
				}
				if a.IsReadonly() {
					return nil, NewReadonlyError(a)
				}
				a.list = append(a.list, b.list...)
				return a, nil
			},
			MakeRdOnly: func(v *Value) { v.SetFlag(FlagReadonly) },
			Freeze: func(v *Value, f Freezer) *Value {
				v.SetFlag(FlagReadonly)
				return v
			},
		},
	})

	DictType = RegisterType(&Type{
		Name:    "dict",
		Kind:    KindDict,
		Mutable: true,
		Methods: Methods{
			Truthy: func(v *Value) bool { return len(v.dict.order) > 0 },
			Clone: func(v *Value) *Value {
				return newDictValue(v.dict.clone())
			},
			Repr:       reprDict,
			Str:        reprDict,
			FormatJSON: formatJSONDict,
			Len: func(v *Value) (uint64, error) {
				return uint64(len(v.dict.order)), nil
			},
			GetAttr: func(v *Value, key string) (*Value, error) {
				val, ok := v.dict.get(key)
				if !ok {
					return nil, NewLookupError(key)
				}
				return val, nil
			},
			SetAttr: func(v *Value, key string, nv *Value) error {
				if v.IsReadonly() {
					return NewReadonlyError(v)
				}
				v.dict.set(key, nv)
				return nil
			},
			GetSub: func(v *Value, key *Value) (*Value, error) {
				if key.Kind() != KindString {
					return nil, NewTypeError("string", key)
				}
				val, ok := v.dict.get(key.s)
				if !ok {
					return nil, NewLookupError(key.s)
				}
				return val, nil
			},
			SetSub: func(v *Value, key *Value, nv *Value) error {
				if v.IsReadonly() {
					return NewReadonlyError(v)
				}
				if key.Kind() != KindString {
					return NewTypeError("string", key)
				}
				v.dict.set(key.s, nv)
				return nil
			},
			IsKeySet: func(v *Value, key *Value) (bool, error) {
				if key.Kind() != KindString {
					return false, NewTypeError("string", key)
				}
				_, ok := v.dict.get(key.s)
				return ok, nil
			},
			UnsetKey: func(v *Value, key *Value) error {
				if key.Kind() != KindString {
					return NewTypeError("string", key)
				}
				v.dict.delete(key.s)
				return nil
			},
			MoveKey: func(v *Value, key *Value) (*Value, error) {
				if key.Kind() != KindString {
					return nil, NewTypeError("string", key)
				}
				val, ok := v.dict.get(key.s)
				if !ok {
					return nil, NewLookupError(key.s)
				}
				v.dict.delete(key.s)
				return val, nil
			},
			Add: func(a, b *Value) (*Value, error) {
				if b.Kind() != KindDict {
					return nil, NewTypeError("dict", b)
				}
				merged := a.dict.clone()
				for _, k := range b.dict.order {
					val, _ := b.dict.get(k)
					merged.set(k, val)
				}
				return newDictValue(merged), nil
			},
			AddInPlace: func(a, b *Value) (*Value, error) {
				if b.Kind() != KindDict {
					return nil, NewTypeError("dict", b)
				}
				if a.IsReadonly() {
					return nil, NewReadonlyError(a)
				}
				for _, k := range b.dict.order {
					val, _ := b.dict.get(k)
					a.dict.set(k, val)
				}
				return a, nil
			},
			MakeRdOnly: func(v *Value) { v.SetFlag(FlagReadonly) },
			Freeze: func(v *Value, f Freezer) *Value {
				v.SetFlag(FlagReadonly)
				return v
			},
		},
	})
}

func listIndex(v *Value, key *Value) (int, error) {
	if key.Kind() != KindInteger {
		return 0, NewTypeError("integer", key)
	}
	idx := int(key.i)
	if idx < 0 {
		idx += len(v.list)
	}
	if idx < 0 || idx >= len(v.list) {
		return 0, NewRangeError("list index out of range")
	}
	return idx, nil
}

// NewList constructs a fresh, uniquely-owned list Value (fxRefCnt starts
// at 0 — package ref bumps it to 1 the first time the value is wrapped).
func NewList(items []*Value) *Value {
	v := &Value{typ: ListType, list: items}
	v.rc.init()
	return v
}

func newDictValue(d *orderedDict) *Value {
	v := &Value{typ: DictType, dict: d}
	v.rc.init()
	return v
}

// NewDict constructs a fresh, empty dict Value.
func NewDict() *Value { return newDictValue(newOrderedDict()) }

// NewDictFrom builds a dict Value from key-ordered pairs, preserving the
// given order.
func NewDictFrom(keys []string, values []*Value) *Value {
	d := newOrderedDict()
	for i, k := range keys {
		d.set(k, values[i])
	}
	return newDictValue(d)
}

// ListItems/DictKeys/DictGet expose read access used by expr/function code.
func (v *Value) ListItems() []*Value { return v.list }
func (v *Value) DictKeys() []string  { return v.dict.order }
func (v *Value) DictGet(key string) (*Value, bool) {
	return v.dict.get(key)
}
func (v *Value) DictLen() int { return len(v.dict.order) }
func (v *Value) ListLen() int { return len(v.list) }

func reprList(v *Value) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, it := range v.list {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.Repr())
	}
	b.WriteByte(']')
	return b.String()
}

func reprDict(v *Value) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range v.dict.order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(jsonQuote(k))
		b.WriteString(": ")
		val, _ := v.dict.get(k)
		b.WriteString(val.Repr())
	}
	b.WriteByte('}')
	return b.String()
}

func formatJSONList(v *Value) (string, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, it := range v.list {
		if i > 0 {
			b.WriteByte(',')
		}
		s, err := it.FormatJSON()
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	b.WriteByte(']')
	return b.String(), nil
}

func formatJSONDict(v *Value) (string, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range v.dict.order {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jsonQuote(k))
		b.WriteByte(':')
		val, _ := v.dict.get(k)
		s, err := val.FormatJSON()
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	b.WriteByte('}')
	return b.String(), nil
}

// FxShare/FxIncr/FxDecr/FxCAS are exported narrowly for package ref, which
// is the only caller outside this package allowed to touch the CoW share
// counter directly.
func (v *Value) FxShare() int32            { return v.fxShare() }
func (v *Value) FxIncr() int32             { return v.fxIncr() }
func (v *Value) FxDecr() int32             { return v.fxDecr() }
func (v *Value) FxCAS(old, new int32) bool { return v.fxCAS(old, new) }
