package schema

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// StringField validates a string member. Lengths are counted in runes.
type StringField[T any] struct {
	core[T, string]
}

// String declares a string field bound to the member returned by ref.
func String[T any](name string, ref func(*T) *string) *StringField[T] {
	return &StringField[T]{core: newCore[T, string](name, ref)}
}

// Trim strips leading and trailing whitespace before the rules run. The
// trimmed value is what Validate returns.
func (f *StringField[T]) Trim() *StringField[T] {
	f.addPrep(strings.TrimSpace)
	return f
}

// Sanitize strips markup from the value using the shared strict policy.
func (f *StringField[T]) Sanitize() *StringField[T] {
	f.addPrep(StripMarkup)
	return f
}

// Optional skips every rule when the (normalised) value is empty.
func (f *StringField[T]) Optional() *StringField[T] {
	f.absent = func(value string) bool { return value == "" }
	return f
}

// Required rejects empty values.
func (f *StringField[T]) Required(msg ...string) *StringField[T] {
	text := message(msg, "is required")
	f.addCheck(func(value string) (string, string, bool) {
		return CodeRequired, text, value != ""
	})
	return f
}

// Min enforces a minimum rune length.
func (f *StringField[T]) Min(n int, msg ...string) *StringField[T] {
	text := message(msg, "minimum length is %d characters", n)
	f.addCheck(func(value string) (string, string, bool) {
		return CodeTooShort, text, utf8.RuneCountInString(value) >= n
	})
	return f
}

// Max enforces a maximum rune length.
func (f *StringField[T]) Max(n int, msg ...string) *StringField[T] {
	text := message(msg, "maximum length is %d characters", n)
	f.addCheck(func(value string) (string, string, bool) {
		return CodeTooLong, text, utf8.RuneCountInString(value) <= n
	})
	return f
}

// Pattern requires the value to match re.
func (f *StringField[T]) Pattern(re *regexp.Regexp, msg ...string) *StringField[T] {
	text := message(msg, "does not match the required format")
	f.addCheck(func(value string) (string, string, bool) {
		return CodePattern, text, re.MatchString(value)
	})
	return f
}

// NotBlank rejects values made only of whitespace or invisible characters.
func (f *StringField[T]) NotBlank(msg ...string) *StringField[T] {
	text := message(msg, "must not be blank")
	f.addCheck(func(value string) (string, string, bool) {
		return CodeCustom, text, !IsBlank(value)
	})
	return f
}

// UUID requires a canonical 8-4-4-4-12 UUID.
func (f *StringField[T]) UUID(msg ...string) *StringField[T] {
	text := message(msg, "must be a valid UUID")
	f.addCheck(func(value string) (string, string, bool) {
		return CodeInvalidFormat, text, IsUUID(value)
	})
	return f
}

// Refine adds a custom predicate.
func (f *StringField[T]) Refine(fn func(string) bool, msg string) *StringField[T] {
	f.addCheck(func(value string) (string, string, bool) {
		return CodeCustom, msg, fn(value)
	})
	return f
}

var blankPattern = regexp.MustCompile(`^[\s\p{Cf}]*$`)

// IsBlank reports whether value holds only whitespace or format characters.
func IsBlank(value string) bool {
	return blankPattern.MatchString(value)
}

// IsUUID reports whether value is a hyphenated UUID. uuid.Parse alone also
// accepts urn and braced forms, which the backend rejects.
func IsUUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}
