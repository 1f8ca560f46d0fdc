package driven

import (
	"context"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// BriefingStore persists completed briefing runs.
type BriefingStore interface {
	// Save stores a briefing.
	Save(ctx context.Context, briefing domain.Briefing) error

	// Get retrieves a briefing by id. Returns domain.ErrNotFound if it
	// does not exist.
	Get(ctx context.Context, id string) (*domain.Briefing, error)

	// List returns the most recent briefings, newest first, up to limit.
	// A non-positive limit returns everything.
	List(ctx context.Context, limit int) ([]domain.Briefing, error)

	// Delete removes a briefing by id.
	Delete(ctx context.Context, id string) error
}
