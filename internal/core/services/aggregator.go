package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driving"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

// Ensure ContextAggregator implements the interface.
var _ driving.ContextGatherer = (*ContextAggregator)(nil)

// ContextAggregator fans source references out to their executors and
// collects results with per-source isolation.
//
// Each reference is one unit of work: context resolution plus the
// executor call, run in its own goroutine. A unit's failure - a
// resolution error, a transport error, even a panic - becomes that
// unit's result record and never touches its siblings. Results land in
// an indexed slice, so input order is preserved no matter which unit
// finishes first.
type ContextAggregator struct {
	resolver  driving.SourceResolver
	executors map[domain.TransportType]driven.Executor
	direct    driven.DirectExecutor
}

// NewContextAggregator creates an aggregator dispatching to the given
// executors by transport type. direct handles legacy inline references
// and may be nil when that shape is not supported.
func NewContextAggregator(
	resolver driving.SourceResolver,
	executors []driven.Executor,
	direct driven.DirectExecutor,
) *ContextAggregator {
	byTransport := make(map[domain.TransportType]driven.Executor, len(executors))
	for _, e := range executors {
		byTransport[e.Transport()] = e
	}
	return &ContextAggregator{
		resolver:  resolver,
		executors: byTransport,
		direct:    direct,
	}
}

// Gather runs every reference concurrently and returns one record per
// reference, in input order. It performs no retries and no caching.
func (a *ContextAggregator) Gather(
	ctx context.Context,
	refs []domain.SourceRef,
	runtimeParams map[string]any,
) []domain.ResultRecord {
	// Source ids must be unique within a batch; duplicates produce
	// records callers cannot tell apart.
	seen := make(map[string]bool, len(refs))
	for i := range refs {
		id := refs[i].EffectiveID()
		if seen[id] {
			logger.Warn("duplicate source id %q in batch, set an explicit id to disambiguate", id)
		}
		seen[id] = true
	}

	results := make([]domain.ResultRecord, len(refs))

	var wg sync.WaitGroup
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.gatherOne(ctx, &refs[i], runtimeParams)
		}(i)
	}
	wg.Wait()

	return results
}

// gatherOne executes a single unit end to end. Every failure path ends
// in a result record; nothing raises past this function.
func (a *ContextAggregator) gatherOne(
	ctx context.Context,
	ref *domain.SourceRef,
	runtimeParams map[string]any,
) (record domain.ResultRecord) {
	// Per-unit isolation holds even for failures thrown far from here.
	defer func() {
		if r := recover(); r != nil {
			record = domain.Failure(ref.EffectiveID(), ref.EffectiveName(),
				fmt.Errorf("internal error: %v", r))
		}
	}()

	switch ref.Kind() {
	case domain.RefDirect:
		return a.runDirect(ctx, ref, runtimeParams)
	case domain.RefConnector:
		return a.runConnector(ctx, ref, runtimeParams)
	default:
		return domain.Failure(ref.EffectiveID(), ref.EffectiveName(),
			fmt.Errorf("%w: source reference matches neither the connector nor the direct shape", domain.ErrInvalidInput))
	}
}

func (a *ContextAggregator) runDirect(
	ctx context.Context,
	ref *domain.SourceRef,
	runtimeParams map[string]any,
) domain.ResultRecord {
	if a.direct == nil {
		return domain.Failure(ref.EffectiveID(), ref.EffectiveName(),
			fmt.Errorf("direct invocation is not supported in this configuration"))
	}

	record, err := a.direct.ExecuteDirect(ctx, ref, runtimeParams)
	if err != nil {
		// Contract violation in the reference itself.
		logger.Warn("direct source %s rejected: %v", ref.EffectiveID(), err)
		return domain.Failure(ref.EffectiveID(), ref.EffectiveName(), err)
	}
	return record
}

func (a *ContextAggregator) runConnector(
	ctx context.Context,
	ref *domain.SourceRef,
	runtimeParams map[string]any,
) domain.ResultRecord {
	ec, err := a.resolver.ResolveSource(ctx, ref, runtimeParams)
	if err != nil {
		// Identity resolution may itself have failed; fall back to the
		// raw reference's names.
		return domain.Failure(ref.EffectiveID(), ref.EffectiveName(), err)
	}

	executor, ok := a.executors[ec.Connector.Type]
	if !ok {
		return domain.Failure(ec.SourceID, ec.SourceName,
			fmt.Errorf("no executor for transport %q", ec.Connector.Type))
	}

	record, err := executor.Execute(ctx, ec)
	if err != nil {
		// Contract violations indicate a definition that slipped past
		// registry validation. Loud, but still only this unit's failure.
		logger.Warn("connector %s definition bug: %v", ec.Connector.ID, err)
		return domain.Failure(ec.SourceID, ec.SourceName, err)
	}
	return record
}
