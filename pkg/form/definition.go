package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-keyforms/pkg/schema"
)

// Kind hints how a field should be presented by a driver.
type Kind string

const (
	KindText     Kind = "text"
	KindTextArea Kind = "textarea"
	KindSecret   Kind = "secret"
	KindNumber   Kind = "number"
	KindChoice   Kind = "choice"
	KindDateTime Kind = "datetime"
)

// FieldMeta describes one field for drivers that do not know the record
// type: prompts, HTTP handlers.
type FieldMeta struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label" yaml:"label"`
	Help        string    `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Kind        Kind      `json:"kind" yaml:"kind"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Options     []Choice  `json:"options,omitempty" yaml:"options,omitempty"`
	Transform   Transform `json:"-" yaml:"-"`
}

// Descriptor returns the binding descriptor for the field.
func (m FieldMeta) Descriptor() FieldDescriptor {
	return FieldDescriptor{Name: m.Name, Transform: m.Transform}
}

// Definition is a named, type-erased form that can be instantiated any
// number of times. Each instance owns its own state.
type Definition interface {
	Name() string
	Title() string
	Fields() []FieldMeta
	Instantiate(opts ...Option) (Instance, error)
}

// Instance is the type-erased view of one mounted form.
type Instance interface {
	Name() string
	Fields() []FieldMeta
	// Value returns the stored value of a field.
	Value(name string) (any, bool)
	// Display returns the stored value formatted as widget input.
	Display(name string) string
	// Change routes raw input through the field binding.
	Change(name, raw string) error
	// Blur validates one field and returns its messages.
	Blur(name string) []string
	FieldErrors(name string) []string
	Errors() Errors
	FormErrors() []string
	Flush() int
	// Validate runs the whole schema and returns the normalised record.
	Validate() (any, schema.Issues)
	ApplyServerErrors(payload map[string][]string)
}

// ErrInvalidDefinition reports metadata that does not match the schema.
var ErrInvalidDefinition = errors.New("form: invalid definition")

// Typed is the generic Definition implementation.
type Typed[T any] struct {
	name     string
	title    string
	schema   schema.Schema[T]
	fields   []FieldMeta
	defaults func() map[string]any
}

// Define builds a definition from a schema and field metadata. Metadata must
// cover every schema field exactly once, in any order; the metadata order is
// the presentation order.
func Define[T any](name, title string, s schema.Schema[T], fields []FieldMeta, defaults func() map[string]any) (*Typed[T], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s: schema is required", ErrInvalidDefinition, name)
	}

	seen := make(map[string]struct{}, len(fields))
	for _, meta := range fields {
		if _, ok := s.Field(meta.Name); !ok {
			return nil, fmt.Errorf("%w: %s: %q is not a schema field", ErrInvalidDefinition, name, meta.Name)
		}
		if _, dup := seen[meta.Name]; dup {
			return nil, fmt.Errorf("%w: %s: %q described twice", ErrInvalidDefinition, name, meta.Name)
		}
		seen[meta.Name] = struct{}{}
	}
	for _, field := range s.Fields() {
		if _, ok := seen[field]; !ok {
			return nil, fmt.Errorf("%w: %s: %q has no metadata", ErrInvalidDefinition, name, field)
		}
	}

	if title == "" {
		title = name
	}
	return &Typed[T]{
		name:     name,
		title:    title,
		schema:   s,
		fields:   append([]FieldMeta(nil), fields...),
		defaults: defaults,
	}, nil
}

// MustDefine panics when Define fails.
func MustDefine[T any](name, title string, s schema.Schema[T], fields []FieldMeta, defaults func() map[string]any) *Typed[T] {
	def, err := Define(name, title, s, fields, defaults)
	if err != nil {
		panic(err)
	}
	return def
}

func (d *Typed[T]) Name() string  { return d.name }
func (d *Typed[T]) Title() string { return d.title }

// Fields returns the field metadata in presentation order.
func (d *Typed[T]) Fields() []FieldMeta {
	return append([]FieldMeta(nil), d.fields...)
}

// Schema exposes the underlying schema.
func (d *Typed[T]) Schema() schema.Schema[T] {
	return d.schema
}

// Open mounts a typed instance. Caller initial values are seeded first and
// the definition defaults fill whatever they left unwritten.
func (d *Typed[T]) Open(opts ...Option) (*Mounted[T], error) {
	ctrl, err := New(d.schema, opts...)
	if err != nil {
		return nil, err
	}
	if d.defaults != nil {
		if err := ctrl.Seed(d.defaults()); err != nil {
			return nil, err
		}
	}

	m := &Mounted[T]{definition: d, controller: ctrl, bindings: make(map[string]Binding[T], len(d.fields))}
	for _, meta := range d.fields {
		binding, err := Bind(ctrl, meta.Descriptor())
		if err != nil {
			return nil, err
		}
		m.bindings[meta.Name] = binding
	}
	return m, nil
}

// Instantiate satisfies Definition.
func (d *Typed[T]) Instantiate(opts ...Option) (Instance, error) {
	return d.Open(opts...)
}

// Mounted is one live instance of a typed definition.
type Mounted[T any] struct {
	definition *Typed[T]
	controller *Controller[T]
	bindings   map[string]Binding[T]
}

// Controller exposes the typed controller, for Submit in particular.
func (m *Mounted[T]) Controller() *Controller[T] {
	return m.controller
}

// Binding returns the binding of a field.
func (m *Mounted[T]) Binding(name string) (Binding[T], bool) {
	binding, ok := m.bindings[name]
	return binding, ok
}

func (m *Mounted[T]) Name() string         { return m.definition.name }
func (m *Mounted[T]) Fields() []FieldMeta  { return m.definition.Fields() }
func (m *Mounted[T]) Errors() Errors       { return m.controller.Errors() }
func (m *Mounted[T]) FormErrors() []string { return m.controller.FormErrors() }
func (m *Mounted[T]) Flush() int           { return m.controller.Flush() }

func (m *Mounted[T]) Value(name string) (any, bool) {
	return m.controller.Value(name)
}

func (m *Mounted[T]) Display(name string) string {
	value, _ := m.controller.Value(name)
	return FormatValue(value)
}

func (m *Mounted[T]) Change(name, raw string) error {
	binding, ok := m.bindings[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return binding.OnChange(raw)
}

func (m *Mounted[T]) Blur(name string) []string {
	binding, ok := m.bindings[name]
	if !ok {
		return []string{}
	}
	binding.OnBlur()
	return binding.Errors()
}

func (m *Mounted[T]) FieldErrors(name string) []string {
	return m.controller.FieldErrors(name)
}

func (m *Mounted[T]) Validate() (any, schema.Issues) {
	result := m.controller.Validate()
	if !result.OK() {
		return nil, result.Issues
	}
	return result.Value, nil
}

func (m *Mounted[T]) ApplyServerErrors(payload map[string][]string) {
	m.controller.ApplyServerErrors(payload)
}
