package schema

// Result is the discriminated outcome of validating a record: either a
// normalised value or the issues that prevented it.
type Result[T any] struct {
	Value  T
	Issues Issues
}

// Success wraps a validated value.
func Success[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Failure wraps a non-empty issue list. The value is left at its zero state
// so callers cannot accidentally submit unvalidated data.
func Failure[T any](issues Issues) Result[T] {
	return Result[T]{Issues: issues}
}

// OK reports whether validation succeeded.
func (r Result[T]) OK() bool {
	return len(r.Issues) == 0
}

// Err returns the issues as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.OK() {
		return nil
	}
	return r.Issues
}
