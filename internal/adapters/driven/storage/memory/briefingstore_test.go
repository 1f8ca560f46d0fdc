package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

func TestBriefingStore_SaveGetDelete(t *testing.T) {
	store := NewBriefingStore()
	ctx := context.Background()

	b := domain.Briefing{ID: "b-1", Name: "morning", CreatedAt: time.Now()}
	require.NoError(t, store.Save(ctx, b))

	got, err := store.Get(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "morning", got.Name)

	require.NoError(t, store.Delete(ctx, "b-1"))
	_, err = store.Get(ctx, "b-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBriefingStore_ListNewestFirst(t *testing.T) {
	store := NewBriefingStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.Save(ctx, domain.Briefing{ID: "old", CreatedAt: base.Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, domain.Briefing{ID: "new", CreatedAt: base}))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)

	one, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "new", one[0].ID)
}
