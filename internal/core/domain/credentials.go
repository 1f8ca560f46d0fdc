package domain

import (
	"strings"
	"unicode"
)

// CredentialEnvVar returns the environment variable consulted first when
// resolving a credential field: the connector id upper-cased with hyphens
// turned to underscores, joined to the field name in SCREAMING_SNAKE_CASE.
// For connector "support-desk" and field "apiKey" this is
// "SUPPORT_DESK_API_KEY".
func CredentialEnvVar(connectorID, field string) string {
	return ConnectorEnvPrefix(connectorID) + "_" + ScreamingSnake(field)
}

// ConnectorEnvPrefix converts a connector id into its env-var prefix.
func ConnectorEnvPrefix(connectorID string) string {
	return strings.ToUpper(strings.ReplaceAll(connectorID, "-", "_"))
}

// ScreamingSnake converts a camelCase or snake_case field name into
// SCREAMING_SNAKE_CASE. Runs of upper-case letters are kept together, so
// "apiKey" becomes "API_KEY" and "baseURL" becomes "BASE_URL".
func ScreamingSnake(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteRune('_')
			} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	out := b.String()
	out = strings.ReplaceAll(out, "-", "_")
	return out
}

// SanitizeConnectorID reduces an arbitrary connector id to a form that is
// safe to embed in a file name: path separators and parent references are
// stripped, runs of anything non-alphanumeric collapse to a single hyphen,
// and the result is lower-cased. Used before building any credential file
// path to keep traversal attempts inside the credentials directory.
func SanitizeConnectorID(id string) string {
	id = strings.ToLower(id)
	id = strings.ReplaceAll(id, "..", "")

	var b strings.Builder
	lastHyphen := false
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
