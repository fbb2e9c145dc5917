package eval

import "github.com/rakunlabs/filterx/internal/filterx/object"

// Sync implements sync(ctx, &msg, path_options) (spec.md §6.2): writes
// back dirty message-tied variables to the host log message. Floating
// variables never sync; they are scope-local by definition (spec.md
// §3.6). A whiteout entry (Assigned with a nil Value) removes the field.
func (c *Context) Sync() error {
	if !c.Scope.Dirty() {
		return nil
	}

	for _, v := range c.Scope.Variables() {
		if v.Handle.IsFloating() || !v.Assigned {
			continue
		}
		name := c.Handles.Name(v.Handle)
		if v.Value == nil {
			c.Msg.Unset(name)
			continue
		}
		repr, tag, err := reprAndTag(v.Value)
		if err != nil {
			return err
		}
		c.Msg.Set(name, repr, tag)
	}

	c.Scope.MarkClean()
	return nil
}

// reprAndTag converts a value to the raw-text/tag pair the host message
// stores (spec.md §6.3's committed tag set).
func reprAndTag(v *object.Value) (string, string, error) {
	switch v.Kind() {
	case object.KindNull:
		return "", object.TagNull, nil
	case object.KindBoolean:
		return v.Str(), object.TagBoolean, nil
	case object.KindInteger:
		return v.Str(), object.TagInteger, nil
	case object.KindDouble:
		return v.Str(), object.TagDouble, nil
	case object.KindString:
		return v.AsString(), object.TagString, nil
	case object.KindBytes:
		return string(v.AsBytes()), object.TagBytes, nil
	case object.KindProtobuf:
		return string(v.AsBytes()), object.TagProtobuf, nil
	case object.KindMessageValue:
		return v.Repr(), v.TypeTag(), nil
	default: // List, Dict
		j, err := v.FormatJSON()
		if err != nil {
			return "", "", err
		}
		return j, object.TagJSON, nil
	}
}
