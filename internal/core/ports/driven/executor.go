package driven

import (
	"context"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// Executor turns one resolved execution context into data or an error
// string, over one specific transport.
//
// Transport failures (spawn errors, non-2xx responses, parse failures) are
// reported inside the returned record, never as the error return. The
// error return is reserved for programming-contract violations: an
// executor invoked against the wrong transport kind, or a fetch missing
// the field its transport requires. Those indicate a definition that
// should never have passed registry validation.
type Executor interface {
	// Transport reports which connector transport this executor serves.
	Transport() domain.TransportType

	// Execute performs the fetch described by ec.
	Execute(ctx context.Context, ec *domain.ExecutionContext) (domain.ResultRecord, error)
}

// DirectExecutor runs a legacy direct-invocation source reference: the
// subprocess command, env and tool are taken from the reference itself,
// with no registry or credential resolution involved.
type DirectExecutor interface {
	ExecuteDirect(ctx context.Context, ref *domain.SourceRef, runtimeParams map[string]any) (domain.ResultRecord, error)
}
