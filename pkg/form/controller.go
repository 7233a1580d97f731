package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-keyforms/pkg/schema"
)

var (
	// ErrUnknownField is returned when a name is not declared by the schema.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrInvalid is returned by Submit when whole-record validation fails.
	ErrInvalid = errors.New("form: validation failed")
)

// SubmitFunc receives the validated payload. It is the only channel through
// which data leaves a controller.
type SubmitFunc[T any] func(ctx context.Context, payload T) error

// Options configures a controller.
type Options struct {
	// Revalidate queues a single-field validation after each update. Queued
	// fields are validated on the next Flush.
	Revalidate bool
	// InitialValues seeds fields that have not been written yet.
	InitialValues map[string]any
}

// Option mutates Options.
type Option func(*Options)

// WithRevalidate toggles revalidation on update.
func WithRevalidate(enabled bool) Option {
	return func(o *Options) {
		o.Revalidate = enabled
	}
}

// WithInitialValues merges values into the initial seed. Later calls win on
// key collisions.
func WithInitialValues(values map[string]any) Option {
	return func(o *Options) {
		if len(values) == 0 {
			return
		}
		if o.InitialValues == nil {
			o.InitialValues = make(map[string]any, len(values))
		}
		for key, value := range values {
			o.InitialValues[key] = value
		}
	}
}

// Controller owns the field values and field errors of one form instance.
// It is not safe for concurrent use; a form instance is driven from a single
// event loop.
type Controller[T any] struct {
	schema     schema.Schema[T]
	fields     []string
	revalidate bool

	state      T
	present    map[string]struct{}
	errors     Errors
	formErrors []string
	pending    []string
}

// New creates a controller for s. Unknown or mistyped initial values are
// reported as errors since they indicate a programming mistake.
func New[T any](s schema.Schema[T], opts ...Option) (*Controller[T], error) {
	if s == nil {
		return nil, errors.New("form: schema is required")
	}
	var cfg Options
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	c := &Controller[T]{
		schema:     s,
		fields:     s.Fields(),
		revalidate: cfg.Revalidate,
		present:    make(map[string]struct{}),
		errors:     make(Errors),
	}
	if err := c.Seed(cfg.InitialValues); err != nil {
		return nil, err
	}
	return c, nil
}

// Fields lists the schema's field names in declaration order.
func (c *Controller[T]) Fields() []string {
	return append([]string(nil), c.fields...)
}

// Seed writes values only for fields that have not been written yet, so
// re-seeding with the same defaults never clobbers user edits.
func (c *Controller[T]) Seed(values map[string]any) error {
	for name := range values {
		if _, ok := c.schema.Field(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}
	for _, name := range c.fields {
		value, ok := values[name]
		if !ok {
			continue
		}
		if _, written := c.present[name]; written {
			continue
		}
		if err := c.assign(name, value); err != nil {
			return err
		}
	}
	return nil
}

// SetState replaces the whole record and marks every field as written.
// Errors are left as they are.
func (c *Controller[T]) SetState(record T) {
	c.state = record
	for _, name := range c.fields {
		c.present[name] = struct{}{}
	}
}

// State returns a copy of the current record.
func (c *Controller[T]) State() T {
	return c.state
}

// Value returns the current value of a field.
func (c *Controller[T]) Value(name string) (any, bool) {
	field, ok := c.schema.Field(name)
	if !ok {
		return nil, false
	}
	return field.Value(&c.state), true
}

// UpdateField stores value under name. When revalidation is enabled the
// field is queued; repeated updates before the next Flush share one pass.
func (c *Controller[T]) UpdateField(name string, value any) error {
	if err := c.assign(name, value); err != nil {
		return err
	}
	if c.revalidate {
		c.enqueue(name)
	}
	return nil
}

// Flush validates every queued field against the state current at the time
// of the call and returns how many fields were checked.
func (c *Controller[T]) Flush() int {
	queued := c.pending
	c.pending = nil
	for _, name := range queued {
		c.ValidateField(name)
	}
	return len(queued)
}

// Pending lists fields queued for revalidation.
func (c *Controller[T]) Pending() []string {
	return append([]string(nil), c.pending...)
}

// ValidateField runs the field's sub-validator against its current value,
// stores the resulting messages (empty on success) and reports whether it
// passed. Unknown fields report false and leave errors untouched.
func (c *Controller[T]) ValidateField(name string) bool {
	field, ok := c.schema.Field(name)
	if !ok {
		return false
	}
	scratch := c.state
	issues := field.Apply(&scratch)
	c.errors[name] = GroupIssues(issues, c.fields).Fields.For(name)
	return len(issues) == 0
}

// Validate runs the whole schema. On failure the error map is replaced by
// the entries derived from the failure set; on success it is cleared. The
// returned value is the normalised record and is what should be submitted.
func (c *Controller[T]) Validate() schema.Result[T] {
	c.pending = nil
	result := c.schema.Parse(c.state)
	grouping := GroupIssues(result.Issues, c.fields)
	c.errors = grouping.Fields
	c.formErrors = grouping.Form
	return result
}

// Submit validates the record and hands the payload to fn only when
// validation succeeds. A failed validation returns ErrInvalid wrapping the
// issues, without calling fn.
func (c *Controller[T]) Submit(ctx context.Context, fn SubmitFunc[T]) (schema.Result[T], error) {
	result := c.Validate()
	if !result.OK() {
		return result, fmt.Errorf("%w: %w", ErrInvalid, result.Issues)
	}
	if fn == nil {
		return result, nil
	}
	if err := fn(ctx, result.Value); err != nil {
		return result, err
	}
	return result, nil
}

// Errors returns a copy of the field error map.
func (c *Controller[T]) Errors() Errors {
	return c.errors.Clone()
}

// FieldErrors returns the messages for one field, or an empty slice.
func (c *Controller[T]) FieldErrors(name string) []string {
	return c.errors.For(name)
}

// SetFieldErrors overrides the messages of one field. Drivers use it to
// surface input that could not be converted before it reached the state.
// A revalidation queued for the field is dropped: it would check the stored
// value, not the rejected input, and erase the messages.
func (c *Controller[T]) SetFieldErrors(name string, messages []string) error {
	if _, ok := c.schema.Field(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	c.errors[name] = append([]string(nil), messages...)
	c.dequeue(name)
	return nil
}

// ApplyServerErrors merges a backend validation payload into the error map.
func (c *Controller[T]) ApplyServerErrors(payload map[string][]string) {
	grouping := MapPayload(payload, c.fields)
	for name, messages := range grouping.Fields {
		c.errors[name] = messages
	}
	for _, message := range grouping.Form {
		c.formErrors = appendUnique(c.formErrors, message)
	}
}

// FormErrors returns record-level messages that do not belong to a field.
func (c *Controller[T]) FormErrors() []string {
	return append([]string(nil), c.formErrors...)
}

func (c *Controller[T]) assign(name string, value any) error {
	field, ok := c.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if err := field.Assign(&c.state, value); err != nil {
		return fmt.Errorf("form: update %q: %w", name, err)
	}
	c.present[name] = struct{}{}
	return nil
}

func (c *Controller[T]) enqueue(name string) {
	for _, queued := range c.pending {
		if queued == name {
			return
		}
	}
	c.pending = append(c.pending, name)
}

func (c *Controller[T]) dequeue(name string) {
	for i, queued := range c.pending {
		if queued == name {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}
