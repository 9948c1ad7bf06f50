package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/cory-johannsen/tallgrass/internal/game/history"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(trainer string, won bool, finished time.Time) history.Record {
	return history.Record{
		ID:            uuid.New(),
		Trainer:       trainer,
		PlayerSpecies: "emberpup",
		PlayerLevel:   5,
		EnemySpecies:  "zephling",
		EnemyLevel:    3,
		PlayerWon:     won,
		Turns:         4,
		StartedAt:     finished.Add(-time.Minute),
		FinishedAt:    finished,
	}
}

func TestMemoryStore_ListAndSummary(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, rec("ash", true, base)))
	require.NoError(t, store.Record(ctx, rec("ash", false, base.Add(time.Hour))))
	require.NoError(t, store.Record(ctx, rec("ash", true, base.Add(2*time.Hour))))
	require.NoError(t, store.Record(ctx, rec("misty", true, base)))

	list, err := store.ListByTrainer(ctx, "ash", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, base.Add(2*time.Hour), list[0].FinishedAt)
	assert.False(t, list[1].PlayerWon)

	all, err := store.ListByTrainer(ctx, "ash", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	s, err := store.Summary(ctx, "ash")
	require.NoError(t, err)
	assert.Equal(t, history.Summary{Wins: 2, Losses: 1}, s)

	s, err = store.Summary(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, history.Summary{}, s)
}

func TestMemoryStore_ImplementsStore(t *testing.T) {
	var _ history.Store = history.NewMemoryStore()
}
