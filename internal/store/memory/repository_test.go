package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rwaynewhite15/logtivity/internal/domain"
)

func TestRepositoryPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	late := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	early := late.Add(-48 * time.Hour)

	first, err := repo.Insert(ctx, domain.NewWorkout{Exercise: "Squat", CreatedAt: late})
	require.NoError(t, err)
	second, err := repo.Insert(ctx, domain.NewWorkout{Exercise: "Backfilled", CreatedAt: early})
	require.NoError(t, err)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, first.ID, listed[0].ID)
	require.Equal(t, second.ID, listed[1].ID, "listing is not sorted by createdAt")
}

func TestRepositoryDeleteReportsPresence(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	saved, err := repo.Insert(ctx, domain.NewWorkout{Exercise: "Row"})
	require.NoError(t, err)
	kept, err := repo.Insert(ctx, domain.NewWorkout{Exercise: "Press"})
	require.NoError(t, err)

	removed, err := repo.Delete(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.Delete(ctx, saved.ID)
	require.NoError(t, err)
	require.False(t, removed)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Workout{kept}, listed)
}

func TestRepositoryNeverReusesIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		saved, err := repo.Insert(ctx, domain.NewWorkout{Exercise: "Lunge"})
		require.NoError(t, err)
		_, dup := seen[saved.ID]
		require.False(t, dup, "id %s reused", saved.ID)
		seen[saved.ID] = struct{}{}
		_, err = repo.Delete(ctx, saved.ID)
		require.NoError(t, err)
	}
}

func TestRepositoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRepository().Insert(ctx, domain.NewWorkout{Exercise: "Plank"})
	require.ErrorIs(t, err, context.Canceled)
}
