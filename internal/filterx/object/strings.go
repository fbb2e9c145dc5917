package object

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

var (
	StringType   *Type
	BytesType    *Type
	ProtobufType *Type
)

var (
	emptyStringSingleton *Value
	digitStringSingleton [10]*Value
)

func init() {
	StringType = RegisterType(&Type{
		Name:    "string",
		Kind:    KindString,
		Mutable: false,
		Methods: Methods{
			Truthy: func(v *Value) bool { return len(v.s) > 0 },
			Repr:   reprString,
			Str:    func(v *Value) string { return v.s },
			FormatJSON: func(v *Value) (string, error) {
				return jsonQuote(v.s), nil
			},
			Clone: func(v *Value) *Value { return v },
			Add: func(a, b *Value) (*Value, error) {
				if b.Kind() != KindString {
					return nil, NewTypeError("string", b)
				}
				return NewString(a.s + b.s), nil
			},
			AddInPlace: func(a, b *Value) (*Value, error) {
				if b.Kind() != KindString {
					return nil, NewTypeError("string", b)
				}
				return NewString(a.s + b.s), nil
			},
			Len: func(v *Value) (uint64, error) {
				return uint64(utf8.RuneCountInString(v.s)), nil
			},
			Freeze: func(v *Value, f Freezer) *Value {
				return f.Intern("s"+v.s, v)
			},
		},
	})
	emptyStringSingleton = &Value{typ: StringType, s: ""}
	emptyStringSingleton.rc.markHibernated()
	for d := 0; d < 10; d++ {
		s := string(rune('0' + d))
		val := &Value{typ: StringType, s: s}
		val.rc.markHibernated()
		digitStringSingleton[d] = val
	}

	BytesType = RegisterType(&Type{
		Name: "bytes",
		Kind: KindBytes,
		Methods: Methods{
			Truthy: func(v *Value) bool { return len(v.s) > 0 },
			Repr:   func(v *Value) string { return hex.EncodeToString([]byte(v.s)) },
			Str:    func(v *Value) string { return v.s },
			FormatJSON: func(v *Value) (string, error) {
				return jsonQuote(base64.StdEncoding.EncodeToString([]byte(v.s))), nil
			},
			Clone: func(v *Value) *Value { return v },
			Len: func(v *Value) (uint64, error) {
				return uint64(len(v.s)), nil
			},
			Freeze: func(v *Value, f Freezer) *Value {
				return f.Intern("y"+v.s, v)
			},
		},
	})

	ProtobufType = RegisterType(&Type{
		Name:   "protobuf",
		Kind:   KindProtobuf,
		Parent: BytesType,
		Methods: Methods{
			Freeze: func(v *Value, f Freezer) *Value {
				return f.Intern("p"+v.s, v)
			},
		},
	})
}

// NewString returns the hibernated singleton for "" or a single digit,
// else a fresh refcounted string Value (spec.md §3.1, §4.1).
func NewString(s string) *Value {
	if s == "" {
		return emptyStringSingleton
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return digitStringSingleton[s[0]-'0']
	}
	v := &Value{typ: StringType, s: s}
	v.rc.init()
	return v
}

// NewBorrowedString builds a string Value that borrows its bytes from
// another value (e.g. a message-value's backing buffer), holding a ref to
// the backing object so the slice stays alive (spec.md §3.3).
func NewBorrowedString(s string, backing *Value) *Value {
	v := &Value{typ: StringType, s: s, borrowsFrom: backing.Ref()}
	v.rc.init()
	v.SetFlag(FlagStrBorrowedSlice)
	return v
}

func NewBytes(b []byte) *Value {
	v := &Value{typ: BytesType, s: string(b)}
	v.rc.init()
	return v
}

func NewProtobuf(b []byte) *Value {
	v := &Value{typ: ProtobufType, s: string(b)}
	v.rc.init()
	return v
}

// AsString/AsBytes return the raw payload for a String/Bytes/Protobuf value.
func (v *Value) AsString() string { return v.s }
func (v *Value) AsBytes() []byte  { return []byte(v.s) }

func reprString(v *Value) string { return jsonQuote(v.s) }

func jsonQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString("\\u")
				const hexdigits = "0123456789abcdef"
				b.WriteByte(hexdigits[(r>>12)&0xf])
				b.WriteByte(hexdigits[(r>>8)&0xf])
				b.WriteByte(hexdigits[(r>>4)&0xf])
				b.WriteByte(hexdigits[r&0xf])
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// NeedsJSONEscaping reports (and caches, per spec.md §3.3/§4.15) whether a
// string needs escaping when formatted as JSON.
func (v *Value) NeedsJSONEscaping() bool {
	if v.HasFlag(FlagJSONEscapingComputed) {
		return v.HasFlag(FlagJSONEscapingNeeded)
	}
	needs := false
	for _, r := range v.s {
		if r == '"' || r == '\\' || r < 0x20 {
			needs = true
			break
		}
	}
	v.SetFlag(FlagJSONEscapingComputed)
	if needs {
		v.SetFlag(FlagJSONEscapingNeeded)
	}
	return needs
}
