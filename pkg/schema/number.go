package schema

// Integer is the set of integer kinds an IntField can bind to.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// IntField validates an integer member against an inclusive range.
type IntField[T any, V Integer] struct {
	core[T, V]
}

// Int declares an integer field.
func Int[T any, V Integer](name string, ref func(*T) *V) *IntField[T, V] {
	return &IntField[T, V]{core: newCore[T, V](name, ref)}
}

// Min enforces value >= n.
func (f *IntField[T, V]) Min(n V, msg ...string) *IntField[T, V] {
	text := message(msg, "must be at least %d", int64(n))
	f.addCheck(func(value V) (string, string, bool) {
		return CodeTooSmall, text, value >= n
	})
	return f
}

// Max enforces value <= n.
func (f *IntField[T, V]) Max(n V, msg ...string) *IntField[T, V] {
	text := message(msg, "must be at most %d", int64(n))
	f.addCheck(func(value V) (string, string, bool) {
		return CodeTooBig, text, value <= n
	})
	return f
}
