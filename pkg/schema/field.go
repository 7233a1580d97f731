package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTypeMismatch is returned when a value cannot be stored in a field
	// because its dynamic type differs from the field's declared type.
	ErrTypeMismatch = errors.New("schema: value type does not match field")
	// ErrDuplicateField signals two fields declared under the same name.
	ErrDuplicateField = errors.New("schema: duplicate field")
)

// Field is the per-field sub-validator contract. Implementations read and
// write one member of the record through a typed accessor, so no reflection
// is involved.
type Field[T any] interface {
	Name() string
	// Value returns the current member value.
	Value(record *T) any
	// Assign stores value in the member. A nil value resets it to its zero
	// state.
	Assign(record *T, value any) error
	// Apply runs the field's normalisers against the member in place and then
	// evaluates every rule, returning the issues in declaration order.
	Apply(record *T) Issues
}

type check[V any] func(V) (code, message string, ok bool)

// core holds the pieces shared by all typed field builders.
type core[T any, V any] struct {
	name   string
	ref    func(*T) *V
	prep   []func(V) V
	checks []check[V]
	absent func(V) bool
}

func newCore[T any, V any](name string, ref func(*T) *V) core[T, V] {
	name = strings.TrimSpace(name)
	if name == "" {
		panic("schema: field name is required")
	}
	if ref == nil {
		panic(fmt.Sprintf("schema: field %q requires an accessor", name))
	}
	return core[T, V]{name: name, ref: ref}
}

func (c *core[T, V]) Name() string {
	return c.name
}

func (c *core[T, V]) Value(record *T) any {
	if record == nil {
		return nil
	}
	return *c.ref(record)
}

func (c *core[T, V]) Assign(record *T, value any) error {
	if record == nil {
		return fmt.Errorf("schema: assign %q: record is nil", c.name)
	}
	if value == nil {
		var zero V
		*c.ref(record) = zero
		return nil
	}
	typed, ok := value.(V)
	if !ok {
		var zero V
		return fmt.Errorf("%w: %q expects %T, got %T", ErrTypeMismatch, c.name, zero, value)
	}
	*c.ref(record) = typed
	return nil
}

func (c *core[T, V]) Apply(record *T) Issues {
	if record == nil {
		return nil
	}
	member := c.ref(record)
	value := *member
	for _, fn := range c.prep {
		value = fn(value)
	}
	*member = value

	if c.absent != nil && c.absent(value) {
		return nil
	}

	var issues Issues
	path := Pointer(c.name)
	for _, rule := range c.checks {
		if code, message, ok := rule(value); !ok {
			issues = append(issues, Issue{Path: path, Code: code, Message: message})
		}
	}
	return issues
}

func (c *core[T, V]) addCheck(rule check[V]) {
	c.checks = append(c.checks, rule)
}

func (c *core[T, V]) addPrep(fn func(V) V) {
	c.prep = append(c.prep, fn)
}

func message(custom []string, format string, args ...any) string {
	for _, candidate := range custom {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return fmt.Sprintf(format, args...)
}
