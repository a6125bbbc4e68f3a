package repositories_test

import (
	"context"
	"github.com/myrjola/heartcollector/internal/models"
	"github.com/myrjola/heartcollector/internal/repositories"
	"github.com/myrjola/heartcollector/internal/sqlite"
	"github.com/myrjola/heartcollector/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
	"time"
)

func newTestRepository(t *testing.T) *repositories.RoundRepository {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	logger := testhelpers.NewLogger(io.Discard)
	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repositories.NewRoundRepository(db, logger)
}

func newRound(gameID string, elapsed time.Duration, startedAt time.Time) models.Round {
	return models.Round{
		ID:         0,
		GameID:     gameID,
		Collected:  10,
		Total:      10,
		Elapsed:    elapsed,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(elapsed),
	}
}

func TestRoundRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	start := time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	slow, err := repo.Record(ctx, newRound("slow", 95*time.Second+250*time.Millisecond, start))
	require.NoError(t, err)
	require.Positive(t, slow.ID)
	require.Equal(t, "slow", slow.GameID)
	require.Equal(t, 95*time.Second+250*time.Millisecond, slow.Elapsed)
	require.True(t, start.Equal(slow.StartedAt))

	fast, err := repo.Record(ctx, newRound("fast", 7*time.Second, start.Add(time.Hour)))
	require.NoError(t, err)
	_, err = repo.Record(ctx, newRound("middle", 30*time.Second, start.Add(2*time.Hour)))
	require.NoError(t, err)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	best, err := repo.Best(ctx, 2)
	require.NoError(t, err)
	require.Len(t, best, 2)
	require.Equal(t, "fast", best[0].GameID)
	require.Equal(t, "middle", best[1].GameID)

	got, ok, err := repo.Get(ctx, fast.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, fast, got)

	_, ok, err = repo.Get(ctx, 404)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRoundRepository_Record_rejectsInvalidRound(t *testing.T) {
	repo := newTestRepository(t)
	round := newRound("cheater", time.Second, time.Now())
	round.Collected = 11

	_, err := repo.Record(context.Background(), round)
	require.Error(t, err)
}
