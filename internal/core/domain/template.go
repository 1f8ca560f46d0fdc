package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// placeholderRegex matches {{scope.field}} tokens. The inner capture is
// split on the first dot to find the scope.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// TemplateContext resolves {{...}} placeholders against a set of
// credentials and params plus a small family of relative-date helpers.
//
// Resolution is best effort by contract: a placeholder whose scope or field
// is unknown is returned unchanged, so a partially configured source fails
// visibly at the point of use instead of crashing template expansion.
type TemplateContext struct {
	// Credentials backs {{credentials.field}} lookups.
	Credentials map[string]string

	// Params backs {{params.field}} lookups.
	Params map[string]any

	// Now supplies the current instant for date helpers. Nil means
	// time.Now. Exposed for tests.
	Now func() time.Time
}

// NewTemplateContext builds a context over the given scopes.
func NewTemplateContext(credentials map[string]string, params map[string]any) *TemplateContext {
	return &TemplateContext{Credentials: credentials, Params: params}
}

// ResolveString expands every recognised placeholder in s.
// Date helpers are resolved first, then scoped credential/param lookups.
// Unknown or malformed placeholders are left verbatim.
func (c *TemplateContext) ResolveString(s string) string {
	return placeholderRegex.ReplaceAllStringFunc(s, func(match string) string {
		inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(match, "{{"), "}}"))

		scope, field, ok := strings.Cut(inner, ".")
		if !ok {
			return match
		}

		switch scope {
		case "date":
			if out, ok := c.resolveDate(field); ok {
				return out
			}
		case "credentials":
			if val, ok := c.Credentials[field]; ok {
				return val
			}
		case "params":
			if val, ok := c.Params[field]; ok {
				return fmt.Sprintf("%v", val)
			}
		}
		return match
	})
}

// Resolve walks v recursively, applying ResolveString to every string leaf.
// Maps and slices are rebuilt; any other value passes through unchanged.
func (c *TemplateContext) Resolve(v any) any {
	switch val := v.(type) {
	case string:
		return c.ResolveString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = c.Resolve(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = c.Resolve(item)
		}
		return out
	default:
		return v
	}
}

// resolveDate handles the date helper family. The second return is false
// for malformed helpers, which are then left verbatim.
func (c *TemplateContext) resolveDate(field string) (string, bool) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	switch {
	case field == "today":
		return now().UTC().Format(time.RFC3339), true
	case field == "startOfDay":
		t := now().UTC()
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return start.Format(time.RFC3339), true
	case strings.HasPrefix(field, "daysAgo."):
		n, err := strconv.Atoi(strings.TrimPrefix(field, "daysAgo."))
		if err != nil || n < 0 {
			return "", false
		}
		return now().UTC().AddDate(0, 0, -n).Format(time.RFC3339), true
	default:
		return "", false
	}
}

// ContainsPlaceholder reports whether s still carries a {{...}} token.
// Adapters use this to refuse sending unresolved placeholders over the wire.
func ContainsPlaceholder(s string) bool {
	return placeholderRegex.MatchString(s)
}

// FindUnresolved walks v and collects every placeholder token remaining in
// its string leaves, in no particular order.
func FindUnresolved(v any) []string {
	var found []string
	var walk func(any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			found = append(found, placeholderRegex.FindAllString(val, -1)...)
		case map[string]any:
			for _, item := range val {
				walk(item)
			}
		case []any:
			for _, item := range val {
				walk(item)
			}
		}
	}
	walk(v)
	return found
}
