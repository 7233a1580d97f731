package form

import (
	"sort"
	"strings"

	"github.com/goliatone/go-keyforms/pkg/schema"
)

// Errors maps field names to their current messages. A missing or empty
// entry means no error is currently known for that field, not that the field
// was validated successfully.
type Errors map[string][]string

// For returns the messages stored for name, or an empty slice.
func (e Errors) For(name string) []string {
	if messages := e[name]; len(messages) > 0 {
		return append([]string(nil), messages...)
	}
	return []string{}
}

// Empty reports whether no field currently carries a message.
func (e Errors) Empty() bool {
	for _, messages := range e {
		if len(messages) > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for key, messages := range e {
		out[key] = append([]string(nil), messages...)
	}
	return out
}

// Grouping is the outcome of splitting a failure set into field-level and
// form-level messages.
type Grouping struct {
	Fields Errors
	Form   []string
}

// GroupIssues buckets issues under the top-level field their path points at.
// Issues whose path does not resolve to one of the known fields become
// form-level messages so nothing is lost. Order follows the issue order and
// repeated messages for the same field are collapsed.
func GroupIssues(issues schema.Issues, fields []string) Grouping {
	known := make(map[string]struct{}, len(fields))
	for _, name := range fields {
		known[name] = struct{}{}
	}

	grouping := Grouping{Fields: make(Errors)}
	for _, issue := range issues {
		text := strings.TrimSpace(issue.Message)
		if text == "" {
			continue
		}
		name := issue.Field()
		if _, ok := known[name]; !ok || name == "" {
			grouping.Form = appendUnique(grouping.Form, text)
			continue
		}
		grouping.Fields[name] = appendUnique(grouping.Fields[name], text)
	}
	return grouping
}

// MapPayload converts a server-side validation payload keyed by loosely
// formatted paths ("/body/name", "$.name", "name") into a grouping against
// the known fields. Wrapper segments such as "body" or "payload" are dropped
// and keys are processed in sorted order so the result is deterministic.
func MapPayload(payload map[string][]string, fields []string) Grouping {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	issues := make(schema.Issues, 0, len(payload))
	for _, rawPath := range keys {
		messages := payload[rawPath]
		segments := dropWrapperSegments(parsePathSegments(rawPath))
		path := "/"
		if len(segments) > 0 {
			path = schema.Pointer(segments[0])
		}
		for _, message := range messages {
			issues = append(issues, schema.Issue{Path: path, Code: schema.CodeCustom, Message: message})
		}
	}
	return GroupIssues(issues, fields)
}

func appendUnique(dst []string, message string) []string {
	for _, existing := range dst {
		if existing == message {
			return dst
		}
	}
	return append(dst, message)
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	for len(segments) > 0 {
		switch strings.ToLower(segments[0]) {
		case "body", "request", "payload", "data", "msg":
			segments = segments[1:]
		default:
			return segments
		}
	}
	return segments
}
