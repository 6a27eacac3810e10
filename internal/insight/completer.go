// Package insight provides the text-completion capability behind the
// natural-language query feature, with a pluggable model backend.
package insight

import (
	"context"
	"regexp"
	"strings"
)

// Completer produces a text completion for a prompt. Implementations
// wrap a concrete model API; callers depend only on this capability.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON pulls a JSON object out of a model response, tolerating
// Markdown code fences and surrounding prose. Returns "" when the
// response contains no object.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	return jsonObject.FindString(s)
}
