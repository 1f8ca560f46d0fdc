package driving

import (
	"context"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// ConnectorCatalog exposes the registry of connector definitions.
type ConnectorCatalog interface {
	// Load scans the search paths and registers every valid definition
	// found. Idempotent: repeated calls after a successful load are
	// no-ops until Reset.
	Load() error

	// Get returns the definition registered under id. The error is a
	// *domain.UnknownConnectorError enumerating the known ids when no
	// such connector exists.
	Get(id string) (*domain.ConnectorDefinition, error)

	// Has reports whether id is registered.
	Has(id string) bool

	// List returns all registered definitions, ordered by id.
	List() []domain.ConnectorDefinition

	// ListIDs returns all registered ids in lexical order.
	ListIDs() []string

	// Register injects a definition directly, bypassing the file scan.
	// Intended for tests and for the generator.
	Register(def *domain.ConnectorDefinition) error

	// Reset clears all registered definitions and re-arms Load.
	Reset()
}

// SourceResolver builds execution contexts from source references.
type SourceResolver interface {
	// ResolveSource looks up the connector and fetch, resolves
	// credentials, merges and validates params, and computes the
	// effective source identity. The returned context is immutable.
	ResolveSource(ctx context.Context, ref *domain.SourceRef, runtimeParams map[string]any) (*domain.ExecutionContext, error)
}

// ConnectorDiscovery probes unregistered subprocess sources and
// synthesizes connector definitions from the result.
type ConnectorDiscovery interface {
	// Probe launches the command as an MCP server, lists its tools and
	// tears it down again.
	Probe(ctx context.Context, command string, args []string, envKeys []string) (*domain.DiscoveryReport, error)

	// Generate turns a probe report into a registrable definition.
	Generate(report *domain.DiscoveryReport, id, name string) (*domain.ConnectorDefinition, error)
}
