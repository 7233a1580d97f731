package schema

import "time"

// TimeField validates a time member. The zero time means "not set".
type TimeField[T any] struct {
	core[T, time.Time]
	required bool
}

// Time declares a time field. Unset values skip every rule unless Required
// is applied.
func Time[T any](name string, ref func(*T) *time.Time) *TimeField[T] {
	f := &TimeField[T]{core: newCore[T, time.Time](name, ref)}
	f.absent = func(value time.Time) bool { return value.IsZero() && !f.required }
	return f
}

// Required rejects the zero time.
func (f *TimeField[T]) Required(msg ...string) *TimeField[T] {
	f.required = true
	text := message(msg, "is required")
	f.addCheck(func(value time.Time) (string, string, bool) {
		return CodeRequired, text, !value.IsZero()
	})
	return f
}

// Future requires the value to be after the instant reported by now. A nil
// clock falls back to time.Now.
func (f *TimeField[T]) Future(now func() time.Time, msg ...string) *TimeField[T] {
	if now == nil {
		now = time.Now
	}
	text := message(msg, "must be in the future")
	f.addCheck(func(value time.Time) (string, string, bool) {
		if value.IsZero() {
			return "", "", true
		}
		return CodeTooSmall, text, value.After(now())
	})
	return f
}
