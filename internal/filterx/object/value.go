package object

import "sync/atomic"

// Flags are the per-value bit flags from spec.md §3.1.
type Flags uint16

const (
	FlagReadonly Flags = 1 << iota
	FlagModifiedInPlace
	FlagWeakReferenced
	FlagThreadSafe
	// String-specific flags.
	FlagJSONEscapingNeeded
	FlagJSONEscapingComputed
	FlagStrAllocated
	FlagStrBorrowedSlice
)

// Value is a FilterX runtime value. Only one of the payload fields is
// meaningful, selected by Type.Kind — Go has no tagged union, so this
// mirrors the C source's single struct-with-subtype-specific-fields shape
// (object-primitive.c, object-string.c et al.) rather than introducing an
// interface-per-kind design that would lose the vtable-inheritance model
// spec.md §4.1 describes.
type Value struct {
	typ   *Type
	rc    refState
	flags Flags

	// fx_ref_cnt: CoW share counter, meaningful only for List/Dict (spec.md
	// §3.1, §3.5). Atomic because frozen/shared containers may be read
	// concurrently (spec.md §5).
	fxRefCnt int32

	// Primitive payloads.
	b bool
	i int64
	d float64

	// String/bytes/protobuf payload. For strings that borrow a slice from
	// another string or message-value, borrowsFrom holds a ref to the
	// backing Value so it isn't freed out from under the slice.
	s           string
	borrowsFrom *Value

	// Container payloads.
	list []*Value
	dict *orderedDict

	// MessageValue payload: a lazy, not-yet-unmarshalled view onto a
	// host-message field. rawTypeTag mirrors spec.md §6.3's tag set.
	rawRepr    string
	rawTypeTag string
}

// NewNull returns the singleton null value. Null is immutable and
// hibernated like booleans; there is exactly one null instance.
func NewNull() *Value { return nullSingleton }

// Type returns the value's type descriptor.
func (v *Value) Type() *Type { return v.typ }

// Kind is a convenience accessor for v.Type().Kind.
func (v *Value) Kind() Kind { return v.typ.Kind }

// Flags/SetFlag/HasFlag — bit flag access.
func (v *Value) HasFlag(f Flags) bool { return v.flags&f != 0 }
func (v *Value) SetFlag(f Flags)      { v.flags |= f }
func (v *Value) ClearFlag(f Flags)    { v.flags &^= f }

// IsReadonly reports whether mutation must be rejected (spec.md §3.1: a
// mutable object "may be made readonly instead [of frozen], which still
// permits refcounting but rejects mutation").
func (v *Value) IsReadonly() bool { return v.HasFlag(FlagReadonly) || v.rc.frozen() }

// IsFrozen / IsHibernated expose the refcount sentinel states.
func (v *Value) IsFrozen() bool     { return v.rc.frozen() }
func (v *Value) IsHibernated() bool { return v.rc.hibernated() }

// MarkFrozen promotes the value's refcount to the FROZEN sentinel; called
// only by package freeze after deduplication and MakeReadonly (spec.md
// §4.15).
func (v *Value) MarkFrozen() { v.rc.markFrozen() }

// Ref increments the refcount; a no-op on FROZEN/HIBERNATED values
// (spec.md §3.1).
func (v *Value) Ref() *Value {
	v.rc.ref()
	return v
}

// Unref decrements the refcount and invokes the type's Free vtable slot
// once it reaches zero; a no-op on FROZEN/HIBERNATED values.
func (v *Value) Unref() {
	if v.rc.unref() {
		if f := v.typ.Methods.Free; f != nil {
			f(v)
		}
	}
}

// MakeReadonly marks a mutable value readonly via its vtable slot, or
// falls back to just setting the flag for types without a custom hook.
func (v *Value) MakeReadonly() {
	if v.HasFlag(FlagReadonly) {
		return
	}
	if f := v.typ.Methods.MakeRdOnly; f != nil {
		f(v)
		return
	}
	v.SetFlag(FlagReadonly)
}

// Truthy dispatches to the type's Truthy vtable slot.
func (v *Value) Truthy() bool {
	if f := v.typ.Methods.Truthy; f != nil {
		return f(v)
	}
	return true
}

// Clone dispatches to the type's Clone vtable slot (spec.md §4.1: "clone
// produces a deep-enough copy so that mutation to the clone never affects
// the original"). Immutable types return themselves.
func (v *Value) Clone() *Value {
	if f := v.typ.Methods.Clone; f != nil {
		return f(v)
	}
	return v
}

// Unmarshal dispatches to the type's Unmarshal vtable slot, used by
// filterx_expr_eval_typed (spec.md §4.2) to turn a lazy message-value into
// a concrete typed object.
func (v *Value) Unmarshal() (*Value, error) {
	if f := v.typ.Methods.Unmarshal; f != nil {
		return f(v)
	}
	return v, nil
}

// Repr/Str/FormatJSON/Len dispatch to their respective vtable slots.
func (v *Value) Repr() string {
	if f := v.typ.Methods.Repr; f != nil {
		return f(v)
	}
	return v.typ.Name
}

func (v *Value) Str() string {
	if f := v.typ.Methods.Str; f != nil {
		return f(v)
	}
	return v.Repr()
}

func (v *Value) FormatJSON() (string, error) {
	if f := v.typ.Methods.FormatJSON; f != nil {
		return f(v)
	}
	return "null", nil
}

func (v *Value) Len() (uint64, error) {
	if f := v.typ.Methods.Len; f != nil {
		return f(v)
	}
	return 0, errNoLen(v)
}

// fxRefShare/fxRefUnshare manage the CoW share counter. Only meaningful
// for List/Dict; package ref drives these directly.
func (v *Value) fxShare() int32          { return atomic.LoadInt32(&v.fxRefCnt) }
func (v *Value) fxIncr() int32           { return atomic.AddInt32(&v.fxRefCnt, 1) }
func (v *Value) fxDecr() int32           { return atomic.AddInt32(&v.fxRefCnt, -1) }
func (v *Value) fxCAS(old, new int32) bool {
	return atomic.CompareAndSwapInt32(&v.fxRefCnt, old, new)
}
