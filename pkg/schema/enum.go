package schema

import "fmt"

// EnumField restricts a comparable member to a fixed set of values.
type EnumField[T any, V comparable] struct {
	core[T, V]
	allowed []V
}

// Enum declares a field whose value must be one of allowed. The zero value
// is treated as "unspecified" and only rejected once Required is set.
func Enum[T any, V comparable](name string, ref func(*T) *V, allowed ...V) *EnumField[T, V] {
	f := &EnumField[T, V]{
		core:    newCore[T, V](name, ref),
		allowed: append([]V(nil), allowed...),
	}
	f.addCheck(func(value V) (string, string, bool) {
		var zero V
		if value == zero {
			return "", "", true
		}
		for _, candidate := range f.allowed {
			if candidate == value {
				return "", "", true
			}
		}
		return CodeInvalidEnum, fmt.Sprintf("unsupported value %v", value), false
	})
	return f
}

// Required rejects the zero value.
func (f *EnumField[T, V]) Required(msg ...string) *EnumField[T, V] {
	text := message(msg, "must be specified")
	f.addCheck(func(value V) (string, string, bool) {
		var zero V
		return CodeRequired, text, value != zero
	})
	return f
}

// Allowed returns a copy of the permitted values in declaration order.
func (f *EnumField[T, V]) Allowed() []V {
	return append([]V(nil), f.allowed...)
}
