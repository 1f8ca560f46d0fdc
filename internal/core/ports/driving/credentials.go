package driving

import (
	"context"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// CredentialsManager manages stored credentials for registered connectors,
// using each connector's auth field schema to know what to ask for.
type CredentialsManager interface {
	// Fields returns the auth field schema for a connector keyed by field
	// name, plus the names in a stable order suitable for prompting.
	Fields(connectorID string) (map[string]domain.AuthField, []string, error)

	// Set saves field values for a connector.
	Set(ctx context.Context, connectorID string, values map[string]string) error

	// Show returns the stored values with secret fields masked.
	Show(ctx context.Context, connectorID string) (map[string]string, error)

	// Delete removes the connector's stored credentials.
	Delete(ctx context.Context, connectorID string) error
}
