package form

import (
	"fmt"

	"github.com/goliatone/go-keyforms/pkg/schema"
)

// Binding projects one controller field into the value/change/blur/errors
// contract an input widget expects. It holds no state of its own.
type Binding[T any] struct {
	controller *Controller[T]
	descriptor FieldDescriptor
}

// Bind creates a binding for desc. The field must exist in the schema.
func Bind[T any](c *Controller[T], desc FieldDescriptor) (Binding[T], error) {
	if c == nil {
		return Binding[T]{}, fmt.Errorf("form: bind %q: controller is nil", desc.Name)
	}
	if _, ok := c.schema.Field(desc.Name); !ok {
		return Binding[T]{}, fmt.Errorf("%w: %q", ErrUnknownField, desc.Name)
	}
	return Binding[T]{controller: c, descriptor: desc}, nil
}

// Name returns the bound field name.
func (b Binding[T]) Name() string {
	return b.descriptor.Name
}

// Value reads the field's current value.
func (b Binding[T]) Value() any {
	value, _ := b.controller.Value(b.descriptor.Name)
	return value
}

// Errors reads the field's messages, defaulting to an empty slice.
func (b Binding[T]) Errors() []string {
	return b.controller.FieldErrors(b.descriptor.Name)
}

// OnChange applies the transform to raw and stores the result. Conversion
// failures become field messages rather than errors; the returned error only
// reports a value the field cannot hold.
func (b Binding[T]) OnChange(raw string) error {
	var value any = raw
	if b.descriptor.Transform != nil {
		converted, err := b.descriptor.Transform(raw)
		if err != nil {
			return b.controller.SetFieldErrors(b.descriptor.Name, []string{err.Error()})
		}
		value = converted
	}
	return b.controller.UpdateField(b.descriptor.Name, value)
}

// OnBlur validates the field. The outcome is read through Errors.
func (b Binding[T]) OnBlur() {
	b.controller.ValidateField(b.descriptor.Name)
}

// Issues validates the field and returns the raw findings without going
// through the error map.
func (b Binding[T]) Issues() schema.Issues {
	field, _ := b.controller.schema.Field(b.descriptor.Name)
	scratch := b.controller.state
	return field.Apply(&scratch)
}
