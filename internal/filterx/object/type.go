// Package object implements FilterX's typed value system: the closed set of
// builtin value kinds (null, boolean, integer, double, string, bytes,
// protobuf, list, dict, message-value) plus the type-descriptor/vtable
// machinery that lets operations on a value fall back to its parent type.
package object

import "sync/atomic"

// Kind identifies one of the builtin value types. Extension types are not
// supported by this closed set; a new builtin requires a new Kind and a
// registered Type.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindString
	KindBytes
	KindProtobuf
	KindList
	KindDict
	KindMessageValue
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindProtobuf:
		return "protobuf"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindMessageValue:
		return "message_value"
	default:
		return "unknown"
	}
}

// Type is the immutable per-kind type descriptor: a name, an optional
// parent (for vtable-slot inheritance), a mutability flag, and the virtual
// method table itself. Every Value carries a pointer to one of these,
// shared across all instances of a kind — descriptors are built once by
// RegisterType and never mutated afterward.
type Type struct {
	Name      string
	Parent    *Type
	Kind      Kind
	Mutable   bool
	Methods   Methods
}

// Methods is the virtual-method table described in spec.md §4.1. A nil
// slot means "inherit from Parent", resolved once at registration time by
// resolveMethods so that dispatch never has to walk the parent chain at
// eval time.
type Methods struct {
	Marshal     func(v *Value) (repr string, typeTag string, err error)
	Unmarshal   func(v *Value) (*Value, error)
	Clone       func(v *Value) *Value
	Truthy      func(v *Value) bool
	GetAttr     func(v *Value, key string) (*Value, error)
	SetAttr     func(v *Value, key string, nv *Value) error
	GetSub      func(v *Value, key *Value) (*Value, error)
	SetSub      func(v *Value, key *Value, nv *Value) error
	IsKeySet    func(v *Value, key *Value) (bool, error)
	UnsetKey    func(v *Value, key *Value) error
	MoveKey     func(v *Value, key *Value) (*Value, error)
	Repr        func(v *Value) string
	Str         func(v *Value) string
	FormatJSON  func(v *Value) (string, error)
	Len         func(v *Value) (uint64, error)
	Add         func(a, b *Value) (*Value, error)
	AddInPlace  func(a, b *Value) (*Value, error)
	Freeze      func(v *Value, f Freezer) *Value
	MakeRdOnly  func(v *Value)
	Free        func(v *Value)
}

// Freezer is the minimal surface the freeze/dedup package needs from a
// value's Freeze method; the concrete implementation lives in package
// freeze to avoid an import cycle (object is a leaf package).
type Freezer interface {
	Intern(contentHash string, v *Value) *Value
}

var registry = map[Kind]*Type{}

// RegisterType builds a descriptor, resolving missing vtable slots from
// Parent (walked once, at registration, per spec.md §4.1: "Missing methods
// inherit from the parent type... resolved at type registration by walking
// parents once").
func RegisterType(t *Type) *Type {
	resolveMethods(t)
	registry[t.Kind] = t
	return t
}

func resolveMethods(t *Type) {
	if t.Parent == nil {
		return
	}
	resolveMethods(t.Parent)
	m := &t.Methods
	p := &t.Parent.Methods
	if m.Marshal == nil {
		m.Marshal = p.Marshal
	}
	if m.Unmarshal == nil {
		m.Unmarshal = p.Unmarshal
	}
	if m.Clone == nil {
		m.Clone = p.Clone
	}
	if m.Truthy == nil {
		m.Truthy = p.Truthy
	}
	if m.GetAttr == nil {
		m.GetAttr = p.GetAttr
	}
	if m.SetAttr == nil {
		m.SetAttr = p.SetAttr
	}
	if m.GetSub == nil {
		m.GetSub = p.GetSub
	}
	if m.SetSub == nil {
		m.SetSub = p.SetSub
	}
	if m.IsKeySet == nil {
		m.IsKeySet = p.IsKeySet
	}
	if m.UnsetKey == nil {
		m.UnsetKey = p.UnsetKey
	}
	if m.MoveKey == nil {
		m.MoveKey = p.MoveKey
	}
	if m.Repr == nil {
		m.Repr = p.Repr
	}
	if m.Str == nil {
		m.Str = p.Str
	}
	if m.FormatJSON == nil {
		m.FormatJSON = p.FormatJSON
	}
	if m.Len == nil {
		m.Len = p.Len
	}
	if m.Add == nil {
		m.Add = p.Add
	}
	if m.AddInPlace == nil {
		m.AddInPlace = p.AddInPlace
	}
	if m.Freeze == nil {
		m.Freeze = p.Freeze
	}
	if m.MakeRdOnly == nil {
		m.MakeRdOnly = p.MakeRdOnly
	}
	if m.Free == nil {
		m.Free = p.Free
	}
}

// TypeOf returns the registered descriptor for a kind, or nil.
func TypeOf(k Kind) *Type { return registry[k] }

// Refcount sentinel values (spec.md §3.1).
const (
	refFrozen     int32 = -1
	refHibernated int32 = -2
)

// refState is the atomic refcount plus sentinel state of a Value.
type refState struct {
	n int32
}

func (r *refState) init()          { atomic.StoreInt32(&r.n, 1) }
func (r *refState) isSentinel() bool {
	n := atomic.LoadInt32(&r.n)
	return n == refFrozen || n == refHibernated
}
func (r *refState) ref() {
	if r.isSentinel() {
		return
	}
	atomic.AddInt32(&r.n, 1)
}

// unref decrements and reports whether the value should now be freed.
func (r *refState) unref() bool {
	if r.isSentinel() {
		return false
	}
	return atomic.AddInt32(&r.n, -1) == 0
}

func (r *refState) markFrozen()     { atomic.StoreInt32(&r.n, refFrozen) }
func (r *refState) markHibernated() { atomic.StoreInt32(&r.n, refHibernated) }
func (r *refState) frozen() bool    { return atomic.LoadInt32(&r.n) == refFrozen }
func (r *refState) hibernated() bool {
	return atomic.LoadInt32(&r.n) == refHibernated
}
