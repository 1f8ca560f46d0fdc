package driving

import (
	"context"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// ContextGatherer fans a batch of source references out to their
// executors and collects one result record per reference.
//
// The returned slice always has exactly len(refs) entries, in input
// order regardless of completion order. No failure of one source -
// including a resolution failure such as an unknown connector - ever
// aborts or alters the others; every failure is converted into a record
// with its error field set.
type ContextGatherer interface {
	Gather(ctx context.Context, refs []domain.SourceRef, runtimeParams map[string]any) []domain.ResultRecord
}

// BriefingService runs complete briefings: gather, prompt assembly,
// generation, and history recording.
type BriefingService interface {
	// Run executes cfg end to end and returns the stored briefing.
	// Partial source failures are tolerated; a run with zero successful
	// sources fails with domain.ErrNoContext.
	Run(ctx context.Context, cfg *domain.BriefingConfig) (*domain.Briefing, error)

	// Gather performs only the fan-out phase of cfg.
	Gather(ctx context.Context, cfg *domain.BriefingConfig) []domain.ResultRecord
}
