package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testBriefing(id string, at time.Time) domain.Briefing {
	return domain.Briefing{
		ID:     id,
		Name:   "morning",
		Model:  "llama3.2",
		Prompt: "Summarize the day.",
		Output: "All quiet.",
		Sources: []domain.SourceStatus{
			{SourceID: "support-desk-open_tickets", SourceName: "Support Desk", OK: true},
			{SourceID: "issue-tracker-list_issues", SourceName: "Issue Tracker", OK: false, Error: "timed out"},
		},
		CreatedAt: at,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := testBriefing("b-1", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Output, got.Output)
	require.Len(t, got.Sources, 2)
	assert.True(t, got.Sources[0].OK)
	assert.Equal(t, "timed out", got.Sources[1].Error)
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Save(ctx, testBriefing("b-old", base.Add(-2*time.Hour))))
	require.NoError(t, store.Save(ctx, testBriefing("b-new", base)))
	require.NoError(t, store.Save(ctx, testBriefing("b-mid", base.Add(-time.Hour))))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b-new", all[0].ID)
	assert.Equal(t, "b-old", all[2].ID)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b-new", limited[0].ID)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testBriefing("b-1", time.Now())))
	require.NoError(t, store.Delete(ctx, "b-1"))

	_, err := store.Get(ctx, "b-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, "b-1"))
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store1, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store1.Save(context.Background(), testBriefing("b-1", time.Now())))
	require.NoError(t, store1.Close())

	// Reopening runs migrate again over an up-to-date schema.
	store2, err := NewStore(dir)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.Get(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "morning", got.Name)
}
