package driven

import (
	"context"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// CredentialsStore resolves and manages per-connector secret values.
//
// Resolution precedence, highest first: a process environment variable
// named {CONNECTOR_PREFIX}_{FIELD_IN_SCREAMING_SNAKE}, then the
// connector's credential file keyed by that same env-var name, then the
// file keyed by the raw field name.
type CredentialsStore interface {
	// Resolve returns the credential values for every auth field the
	// connector declares. Required fields that resolve to nothing are
	// reported via a warning side effect and omitted from the map, so
	// their template placeholders stay verbatim and surface at the
	// point of use.
	Resolve(ctx context.Context, def *domain.ConnectorDefinition) map[string]string

	// Save writes the given field values to the connector's credential
	// file, creating it with owner-only permissions.
	Save(ctx context.Context, connectorID string, values map[string]string) error

	// Load reads the connector's credential file. A missing file yields
	// an empty map, not an error.
	Load(ctx context.Context, connectorID string) (map[string]string, error)

	// Delete removes the connector's credential file. Deleting
	// credentials that were never stored is not an error.
	Delete(ctx context.Context, connectorID string) error
}
