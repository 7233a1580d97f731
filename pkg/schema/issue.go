package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes reported by the built-in rules.
const (
	CodeRequired      = "required"
	CodeInvalidType   = "invalid_type"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeCustom        = "custom"
)

// Issue is a single validation finding. Path is a JSON Pointer relative to
// the record root ("/name"); an empty path or "/" addresses the record
// itself.
type Issue struct {
	Path    string `json:"path" yaml:"path"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Field returns the top-level field the issue points at, or "" for
// record-level issues.
func (i Issue) Field() string {
	segments := PointerSegments(i.Path)
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

// Issues is an ordered collection of findings that also satisfies error so
// callers that prefer error plumbing can carry it.
type Issues []Issue

// Error summarises the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	var b strings.Builder
	limit := len(iss)
	if limit > maxShown {
		limit = maxShown
	}
	for idx := 0; idx < limit; idx++ {
		if idx > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s at %s", iss[idx].Code, displayPath(iss[idx].Path))
	}
	if len(iss) > limit {
		fmt.Fprintf(&b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Messages returns the issue messages in order.
func (iss Issues) Messages() []string {
	if len(iss) == 0 {
		return nil
	}
	out := make([]string, 0, len(iss))
	for _, issue := range iss {
		out = append(out, issue.Message)
	}
	return out
}

// AsIssues extracts Issues from an error chain.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Pointer builds a JSON Pointer for the provided segments, escaping "~" and
// "/" as RFC 6901 requires.
func Pointer(segments ...string) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, segment := range segments {
		b.WriteByte('/')
		segment = strings.ReplaceAll(segment, "~", "~0")
		segment = strings.ReplaceAll(segment, "/", "~1")
		b.WriteString(segment)
	}
	return b.String()
}

// PointerSegments splits a JSON Pointer into unescaped segments. A leading
// "#" fragment marker is tolerated.
func PointerSegments(pointer string) []string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func displayPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "/"
	}
	return path
}
