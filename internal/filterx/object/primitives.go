package object

// NullType/BooleanType/IntegerType/DoubleType are the four primitive
// builtin type descriptors (spec.md §3.2).
var (
	NullType    *Type
	BooleanType *Type
	IntegerType *Type
	DoubleType  *Type
)

var nullSingleton *Value

// Hibernated caches (spec.md §3.1, §4.1). The spec names two overlapping
// ranges for the small-integer cache ([-128,128] in §4.1, 0..255 in §3.1);
// rather than guess which is authoritative we cache the union of both
// so every call site's fast path is covered.
const (
	intCacheLo = -128
	intCacheHi = 255
)

var (
	boolTrue, boolFalse *Value
	intCache            [intCacheHi - intCacheLo + 1]*Value
)

func init() {
	NullType = RegisterType(&Type{
		Name: "null",
		Kind: KindNull,
		Methods: Methods{
			Truthy: func(v *Value) bool { return false },
			Repr:   func(v *Value) string { return "null" },
			Str:    func(v *Value) string { return "" },
			FormatJSON: func(v *Value) (string, error) {
				return "null", nil
			},
			Clone: func(v *Value) *Value { return v },
			Freeze: func(v *Value, f Freezer) *Value {
				return f.Intern("n", v)
			},
		},
	})
	nullSingleton = &Value{typ: NullType}
	nullSingleton.rc.markHibernated()

	BooleanType = RegisterType(&Type{
		Name: "boolean",
		Kind: KindBoolean,
		Methods: Methods{
			Truthy: func(v *Value) bool { return v.b },
			Repr: func(v *Value) string {
				if v.b {
					return "true"
				}
				return "false"
			},
			Str: func(v *Value) string { return v.Repr() },
			FormatJSON: func(v *Value) (string, error) {
				return v.Repr(), nil
			},
			Clone: func(v *Value) *Value { return v },
			Freeze: func(v *Value, f Freezer) *Value {
				if v.b {
					return f.Intern("bT", v)
				}
				return f.Intern("bF", v)
			},
		},
	})
	boolTrue = &Value{typ: BooleanType, b: true}
	boolTrue.rc.markHibernated()
	boolFalse = &Value{typ: BooleanType, b: false}
	boolFalse.rc.markHibernated()

	IntegerType = RegisterType(&Type{
		Name: "integer",
		Kind: KindInteger,
		Methods: Methods{
			Truthy: func(v *Value) bool { return v.i != 0 },
			Repr:   func(v *Value) string { return itoa(v.i) },
			Str:    func(v *Value) string { return itoa(v.i) },
			FormatJSON: func(v *Value) (string, error) {
				return itoa(v.i), nil
			},
			Clone: func(v *Value) *Value { return v },
			Add:   addInteger,
			AddInPlace: addInteger,
			Freeze: func(v *Value, f Freezer) *Value {
				return f.Intern("i"+itoa(v.i), v)
			},
		},
	})
	for n := intCacheLo; n <= intCacheHi; n++ {
		val := &Value{typ: IntegerType, i: int64(n)}
		val.rc.markHibernated()
		intCache[n-intCacheLo] = val
	}

	DoubleType = RegisterType(&Type{
		Name: "double",
		Kind: KindDouble,
		Methods: Methods{
			Truthy: func(v *Value) bool { return v.d != 0 },
			Repr:   func(v *Value) string { return ftoa(v.d) },
			Str:    func(v *Value) string { return ftoa(v.d) },
			FormatJSON: func(v *Value) (string, error) {
				if isNaN(v.d) || isInf(v.d) {
					return "null", nil
				}
				return ftoa(v.d), nil
			},
			Clone: func(v *Value) *Value { return v },
			Add:   addDouble,
			AddInPlace: addDouble,
			Freeze: func(v *Value, f Freezer) *Value {
				return f.Intern("d"+ftoa(v.d), v)
			},
		},
	})
}

// IsNull reports whether v is the null value or a message-value whose
// underlying host field carries the NULL tag (spec.md §4.9: "a null
// message-value is treated as null").
func IsNull(v *Value) bool {
	if v == nil {
		return true
	}
	if v.Kind() == KindNull {
		return true
	}
	if v.Kind() == KindMessageValue {
		return v.IsNullMessageValue()
	}
	return false
}

// NewBoolean returns the hibernated true/false singleton (spec.md §4.1).
func NewBoolean(b bool) *Value {
	if b {
		return boolTrue
	}
	return boolFalse
}

// NewInteger returns a cached hibernated singleton for small magnitudes,
// else a freshly refcounted integer Value.
func NewInteger(n int64) *Value {
	if n >= intCacheLo && n <= intCacheHi {
		return intCache[n-intCacheLo]
	}
	v := &Value{typ: IntegerType, i: n}
	v.rc.init()
	return v
}

// NewDouble always allocates; doubles are not cached (spec.md is silent on
// a double cache, and NaN in particular must never be deduplicated since
// NaN != NaN at the language level).
func NewDouble(d float64) *Value {
	v := &Value{typ: DoubleType, d: d}
	v.rc.init()
	return v
}

// AsInteger/AsDouble/AsBoolean are narrow accessors used by expr/function
// code that has already type-switched on Kind.
func (v *Value) AsInteger() int64 { return v.i }
func (v *Value) AsDouble() float64 { return v.d }
func (v *Value) AsBoolean() bool   { return v.b }

// addInteger implements integer+integer (stays int64) and integer+double
// (coerces to double) per spec.md §3.2. NaN operands yield null.
func addInteger(a, b *Value) (*Value, error) {
	switch b.Kind() {
	case KindInteger:
		return NewInteger(a.i + b.i), nil
	case KindDouble:
		if isNaN(b.d) {
			return NewNull(), nil
		}
		return NewDouble(float64(a.i) + b.d), nil
	default:
		return nil, NewTypeError("integer or double", b)
	}
}

func addDouble(a, b *Value) (*Value, error) {
	if isNaN(a.d) {
		return NewNull(), nil
	}
	switch b.Kind() {
	case KindInteger:
		return NewDouble(a.d + float64(b.i)), nil
	case KindDouble:
		if isNaN(b.d) {
			return NewNull(), nil
		}
		return NewDouble(a.d + b.d), nil
	default:
		return nil, NewTypeError("integer or double", b)
	}
}

// Subtract/Multiply/Divide/Modulo/Negate implement the remaining
// arithmetic operators used by expr's arithmetic-operator nodes, as free
// functions rather than Methods slots. They are not named `subs`/`mult`/
// `div`/`mod`/`uminus`.

// Subtract computes a-b with the same integer/double coercion as Add; NaN
// on either side yields null (spec.md §8 scenario 2: "nan - 1 → null").
func Subtract(a, b *Value) (*Value, error) {
	af, aInt, aOK := numOperand(a)
	bf, bInt, bOK := numOperand(b)
	if !aOK {
		return nil, NewTypeError("integer or double", a)
	}
	if !bOK {
		return nil, NewTypeError("integer or double", b)
	}
	if isNaN(af) || isNaN(bf) {
		return NewNull(), nil
	}
	if aInt && bInt {
		return NewInteger(a.i - b.i), nil
	}
	return NewDouble(af - bf), nil
}

// Multiply computes a*b.
func Multiply(a, b *Value) (*Value, error) {
	af, aInt, aOK := numOperand(a)
	bf, bInt, bOK := numOperand(b)
	if !aOK {
		return nil, NewTypeError("integer or double", a)
	}
	if !bOK {
		return nil, NewTypeError("integer or double", b)
	}
	if isNaN(af) || isNaN(bf) {
		return NewNull(), nil
	}
	if aInt && bInt {
		return NewInteger(a.i * b.i), nil
	}
	return NewDouble(af * bf), nil
}

// Divide computes a/b.
func Divide(a, b *Value) (*Value, error) {
	af, aInt, aOK := numOperand(a)
	bf, bInt, bOK := numOperand(b)
	if !aOK {
		return nil, NewTypeError("integer or double", a)
	}
	if !bOK {
		return nil, NewTypeError("integer or double", b)
	}
	if isNaN(af) || isNaN(bf) {
		return NewNull(), nil
	}
	if aInt && bInt {
		if b.i == 0 {
			return nil, NewRangeError("division by zero")
		}
		if a.i%b.i == 0 {
			return NewInteger(a.i / b.i), nil
		}
		return NewDouble(float64(a.i) / float64(b.i)), nil
	}
	return NewDouble(af / bf), nil
}

// Modulo is integer-only (spec.md §3.2: "Modulo is integer-only; both
// operands must be integer else evaluation fails"). On error it returns
// (nil, err) rather than the source's stray FALSE/0 (spec.md §9 Open
// Question #2: "error -> null and do not propagate the stray boolean").
func Modulo(a, b *Value) (*Value, error) {
	if a.Kind() != KindInteger || b.Kind() != KindInteger {
		return nil, NewTypeError("integer", pickNonInteger(a, b))
	}
	if b.i == 0 {
		return nil, NewRangeError("modulo by zero")
	}
	return NewInteger(a.i % b.i), nil
}

func pickNonInteger(a, b *Value) *Value {
	if a.Kind() != KindInteger {
		return a
	}
	return b
}

// Negate implements unary minus, preserving the integer/double distinction
// (spec.md §3.2: "Unary minus preserves the integer/double distinction").
func Negate(a *Value) (*Value, error) {
	switch a.Kind() {
	case KindInteger:
		return NewInteger(-a.i), nil
	case KindDouble:
		return NewDouble(-a.d), nil
	default:
		return nil, NewTypeError("integer or double", a)
	}
}

func numOperand(v *Value) (f float64, isInt bool, ok bool) {
	switch v.Kind() {
	case KindInteger:
		return float64(v.i), true, true
	case KindDouble:
		return v.d, false, true
	default:
		return 0, false, false
	}
}
