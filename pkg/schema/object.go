package schema

import (
	"fmt"
	"strings"
)

// Schema is the record-level contract consumed by form controllers: a set
// of named per-field sub-validators plus a whole-record parse.
type Schema[T any] interface {
	Fields() []string
	Field(name string) (Field[T], bool)
	Parse(record T) Result[T]
}

// Refiner runs after every field rule and reports cross-field issues.
type Refiner[T any] func(record T) Issues

// Object is the default Schema implementation: an ordered list of fields
// and optional record-level refiners.
type Object[T any] struct {
	fields   []Field[T]
	byName   map[string]Field[T]
	refiners []Refiner[T]
}

// NewObject builds an object schema. Field names must be unique.
func NewObject[T any](fields ...Field[T]) (*Object[T], error) {
	obj := &Object[T]{
		byName: make(map[string]Field[T], len(fields)),
	}
	for _, field := range fields {
		if field == nil {
			continue
		}
		name := strings.TrimSpace(field.Name())
		if _, exists := obj.byName[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, name)
		}
		obj.byName[name] = field
		obj.fields = append(obj.fields, field)
	}
	return obj, nil
}

// MustObject panics when NewObject fails. Intended for package-level schema
// declarations.
func MustObject[T any](fields ...Field[T]) *Object[T] {
	obj, err := NewObject(fields...)
	if err != nil {
		panic(err)
	}
	return obj
}

// Refine appends a record-level rule. Refiners only run when every field
// passed, matching the usual "refine after shape" ordering.
func (o *Object[T]) Refine(fn Refiner[T]) *Object[T] {
	if fn != nil {
		o.refiners = append(o.refiners, fn)
	}
	return o
}

// Fields lists field names in declaration order.
func (o *Object[T]) Fields() []string {
	names := make([]string, 0, len(o.fields))
	for _, field := range o.fields {
		names = append(names, field.Name())
	}
	return names
}

// Field looks up a field by name.
func (o *Object[T]) Field(name string) (Field[T], bool) {
	field, ok := o.byName[name]
	return field, ok
}

// CheckField validates a single field against a copy of record, leaving the
// caller's value untouched.
func (o *Object[T]) CheckField(name string, record T) (Issues, bool) {
	field, ok := o.byName[name]
	if !ok {
		return nil, false
	}
	return field.Apply(&record), true
}

// Parse normalises a copy of record field by field and validates it. On
// success the normalised copy is returned.
func (o *Object[T]) Parse(record T) Result[T] {
	var issues Issues
	for _, field := range o.fields {
		issues = append(issues, field.Apply(&record)...)
	}
	if len(issues) == 0 {
		for _, refine := range o.refiners {
			issues = append(issues, refine(record)...)
		}
	}
	if len(issues) > 0 {
		return Failure[T](issues)
	}
	return Success(record)
}
