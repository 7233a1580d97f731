package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-keyforms/pkg/schema"
)

// Transform converts raw widget input into the value stored in the state.
// A transform error is surfaced as a field message; the state keeps its
// previous value.
type Transform func(raw string) (any, error)

// FieldDescriptor pairs a field name with an optional transform.
type FieldDescriptor struct {
	Name      string
	Transform Transform
}

// Text stores the raw string unchanged.
func Text() Transform {
	return func(raw string) (any, error) {
		return raw, nil
	}
}

// Integer parses base-10 input into V. Empty input stores the zero value.
func Integer[V schema.Integer]() Transform {
	return func(raw string) (any, error) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			var zero V
			return zero, nil
		}
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", raw)
		}
		value := V(parsed)
		if int64(value) != parsed {
			return nil, fmt.Errorf("%q is out of range", raw)
		}
		return value, nil
	}
}

// Choice is one selectable value of an enumerated field.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Enum resolves input against an option table keyed by the choice value,
// falling back to a case-insensitive label match. Empty input stores the
// zero value.
func Enum[V comparable](values map[string]V, choices []Choice) Transform {
	return func(raw string) (any, error) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			var zero V
			return zero, nil
		}
		if value, ok := values[trimmed]; ok {
			return value, nil
		}
		for _, choice := range choices {
			if strings.EqualFold(choice.Label, trimmed) {
				if value, ok := values[choice.Value]; ok {
					return value, nil
				}
			}
		}
		return nil, fmt.Errorf("%q is not one of the available options", raw)
	}
}

// DefaultTimeLayouts are tried in order by Timestamp when no layouts are
// given. They cover datetime-local widget output and RFC 3339.
var DefaultTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp parses input with the first matching layout, interpreting
// zone-less layouts in loc (time.Local when nil). Empty input stores the
// zero time.
func Timestamp(loc *time.Location, layouts ...string) Transform {
	if loc == nil {
		loc = time.Local
	}
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	return func(raw string) (any, error) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return time.Time{}, nil
		}
		for _, layout := range layouts {
			if parsed, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
				return parsed, nil
			}
		}
		return nil, fmt.Errorf("%q is not a valid date and time", raw)
	}
}

// FormatValue renders a stored value back into widget input, the inverse of
// the transforms above.
func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case time.Time:
		if typed.IsZero() {
			return ""
		}
		return typed.Format("2006-01-02T15:04")
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
