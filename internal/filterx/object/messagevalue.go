package object

import (
	"strconv"
)

// MessageValue is a lazily-unmarshalled view onto a host message field
// (spec.md §3.1, §2 item 1). It carries the raw repr string plus the
// host's type tag (spec.md §6.3) and only becomes a concrete typed Value
// when Unmarshal is called — mirroring the source's "pull from message on
// first read" behavior (spec.md §4.10's variable-reference eval).
var MessageValueType *Type

// Host message type tags (spec.md §6.3).
const (
	TagString   = "STRING"
	TagBytes    = "BYTES"
	TagProtobuf = "PROTOBUF"
	TagInteger  = "INTEGER"
	TagDouble   = "DOUBLE"
	TagBoolean  = "BOOLEAN"
	TagDatetime = "DATETIME"
	TagNull     = "NULL"
	TagJSON     = "JSON"
)

func init() {
	MessageValueType = RegisterType(&Type{
		Name: "message_value",
		Kind: KindMessageValue,
		Methods: Methods{
			Unmarshal: unmarshalMessageValue,
			Truthy: func(v *Value) bool {
				unmarshaled, err := unmarshalMessageValue(v)
				if err != nil {
					return false
				}
				return unmarshaled.Truthy()
			},
			Repr: func(v *Value) string { return v.rawRepr },
			Str:  func(v *Value) string { return v.rawRepr },
			FormatJSON: func(v *Value) (string, error) {
				unmarshaled, err := unmarshalMessageValue(v)
				if err != nil {
					return "", err
				}
				return unmarshaled.FormatJSON()
			},
			Clone: func(v *Value) *Value { return v },
			Freeze: func(v *Value, f Freezer) *Value {
				unmarshaled, err := unmarshalMessageValue(v)
				if err != nil {
					return v
				}
				return unmarshaled.typ.Methods.Freeze(unmarshaled, f)
			},
		},
	})
}

// NewMessageValue builds a lazily-unmarshalled field view. repr is the raw
// textual representation as the host message stored it; tag is one of the
// Tag* constants.
func NewMessageValue(repr string, tag string) *Value {
	v := &Value{typ: MessageValueType, rawRepr: repr, rawTypeTag: tag}
	v.rc.init()
	return v
}

// TypeTag returns the message-value's host type tag.
func (v *Value) TypeTag() string { return v.rawTypeTag }

// IsNullMessageValue reports whether an unevaluated message-value carries
// the NULL tag, used by null-coalesce/conditional without a full unmarshal
// (spec.md §4.9: "A null message-value is treated as null").
func (v *Value) IsNullMessageValue() bool {
	return v.Kind() == KindMessageValue && v.rawTypeTag == TagNull
}

func unmarshalMessageValue(v *Value) (*Value, error) {
	switch v.rawTypeTag {
	case TagNull:
		return NewNull(), nil
	case TagBoolean:
		return NewBoolean(v.rawRepr == "true" || v.rawRepr == "1"), nil
	case TagInteger:
		n, err := strconv.ParseInt(v.rawRepr, 10, 64)
		if err != nil {
			return nil, NewTypeError("integer", v)
		}
		return NewInteger(n), nil
	case TagDouble:
		d, err := strconv.ParseFloat(v.rawRepr, 64)
		if err != nil {
			return nil, NewTypeError("double", v)
		}
		return NewDouble(d), nil
	case TagBytes:
		return NewBorrowedString(v.rawRepr, v), nil
	case TagProtobuf:
		return NewProtobuf([]byte(v.rawRepr)), nil
	case TagDatetime, TagString:
		return NewBorrowedString(v.rawRepr, v), nil
	case TagJSON:
		return nil, errJSONRequiresParser
	default:
		return NewBorrowedString(v.rawRepr, v), nil
	}
}

// errJSONRequiresParser signals that package jsonio must do the unmarshal;
// internal/filterx/expr wires jsonio in for this tag so object stays a
// leaf package with no jsonio dependency.
var errJSONRequiresParser = &TypeError{Expected: "jsonio.Parse", Actual: "JSON message-value"}

// ErrJSONRequiresParser exposes the sentinel for callers (expr/eval) that
// need to detect it and re-dispatch through jsonio.
func ErrJSONRequiresParser() error { return errJSONRequiresParser }
