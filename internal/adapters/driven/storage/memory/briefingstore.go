package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
)

// Ensure BriefingStore implements the interface.
var _ driven.BriefingStore = (*BriefingStore)(nil)

// BriefingStore is an in-memory implementation of driven.BriefingStore.
type BriefingStore struct {
	mu        sync.RWMutex
	briefings map[string]domain.Briefing
}

// NewBriefingStore creates a new in-memory briefing store.
func NewBriefingStore() *BriefingStore {
	return &BriefingStore{
		briefings: make(map[string]domain.Briefing),
	}
}

// Save stores a briefing.
func (s *BriefingStore) Save(ctx context.Context, briefing domain.Briefing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.briefings[briefing.ID] = briefing
	return nil
}

// Get retrieves a briefing by id.
func (s *BriefingStore) Get(ctx context.Context, id string) (*domain.Briefing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	briefing, ok := s.briefings[id]
	if !ok {
		return nil, fmt.Errorf("briefing %s: %w", id, domain.ErrNotFound)
	}
	return &briefing, nil
}

// List returns the most recent briefings, newest first, up to limit.
func (s *BriefingStore) List(ctx context.Context, limit int) ([]domain.Briefing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Briefing, 0, len(s.briefings))
	for _, b := range s.briefings {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Delete removes a briefing by id.
func (s *BriefingStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.briefings, id)
	return nil
}
