package object

// GetAttr/SetAttr/GetSub/SetSub/IsKeySet/UnsetKey/MoveKey/Add/AddInPlace
// dispatch to the corresponding vtable slot, returning a TypeError if the
// type doesn't support the operation at all (spec.md §4.1's virtual
// contract; nil slots after resolveMethods mean "never supported", not
// "inherit" — inheritance was already applied at registration).

func (v *Value) GetAttr(key string) (*Value, error) {
	if f := v.typ.Methods.GetAttr; f != nil {
		return f(v, key)
	}
	return nil, NewTypeError("dict", v)
}

func (v *Value) SetAttr(key string, nv *Value) error {
	if f := v.typ.Methods.SetAttr; f != nil {
		return f(v, key, nv)
	}
	return NewTypeError("dict", v)
}

func (v *Value) GetSub(key *Value) (*Value, error) {
	if f := v.typ.Methods.GetSub; f != nil {
		return f(v, key)
	}
	return nil, NewTypeError("list or dict", v)
}

func (v *Value) SetSub(key *Value, nv *Value) error {
	if f := v.typ.Methods.SetSub; f != nil {
		return f(v, key, nv)
	}
	return NewTypeError("list or dict", v)
}

func (v *Value) IsKeySet(key *Value) (bool, error) {
	if f := v.typ.Methods.IsKeySet; f != nil {
		return f(v, key)
	}
	return false, NewTypeError("list or dict", v)
}

func (v *Value) UnsetKey(key *Value) error {
	if f := v.typ.Methods.UnsetKey; f != nil {
		return f(v, key)
	}
	return NewTypeError("list or dict", v)
}

func (v *Value) MoveKey(key *Value) (*Value, error) {
	if f := v.typ.Methods.MoveKey; f != nil {
		return f(v, key)
	}
	return nil, NewTypeError("list or dict", v)
}

// Add never mutates either operand (spec.md §4.1).
func (v *Value) Add(b *Value) (*Value, error) {
	if f := v.typ.Methods.Add; f != nil {
		return f(v, b)
	}
	return nil, NewTypeError("addable type", v)
}

// AddInPlace may mutate v (used by += per spec.md §4.6).
func (v *Value) AddInPlace(b *Value) (*Value, error) {
	if f := v.typ.Methods.AddInPlace; f != nil {
		return f(v, b)
	}
	return nil, NewTypeError("addable type", v)
}
