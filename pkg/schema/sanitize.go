package schema

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// StripMarkup removes every HTML element from value and decodes the
// entities bluemonday escapes, leaving plain text.
func StripMarkup(value string) string {
	if !strings.ContainsAny(value, "<>&") {
		return value
	}
	return html.UnescapeString(markupSanitizer().Sanitize(value))
}

func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.StrictPolicy()
	})
	return markupPolicy
}
