package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tallgrass/internal/game/history"
	"github.com/cory-johannsen/tallgrass/internal/storage/postgres"
	"github.com/cory-johannsen/tallgrass/internal/testutil"
)

func uniqueTrainer(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func makeRecord(trainer string, won bool, finished time.Time) history.Record {
	return history.Record{
		ID:            uuid.New(),
		Trainer:       trainer,
		PlayerSpecies: "emberpup",
		PlayerLevel:   5,
		EnemySpecies:  "pebbit",
		EnemyLevel:    3,
		PlayerWon:     won,
		Turns:         4,
		Seed:          42,
		StartedAt:     finished.Add(-time.Minute),
		FinishedAt:    finished,
	}
}

func TestBattleRecordRepository(t *testing.T) {
	repo := postgres.NewBattleRecordRepository(testutil.NewPool(t))
	ctx := context.Background()

	t.Run("record then get", func(t *testing.T) {
		rec := makeRecord(uniqueTrainer("ash"), true, time.Now().UTC().Truncate(time.Microsecond))
		require.NoError(t, repo.Record(ctx, rec))

		got, err := repo.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.Trainer, got.Trainer)
		assert.Equal(t, rec.EnemySpecies, got.EnemySpecies)
		assert.Equal(t, rec.Seed, got.Seed)
		assert.True(t, rec.FinishedAt.Equal(got.FinishedAt))
	})

	t.Run("duplicate id", func(t *testing.T) {
		rec := makeRecord(uniqueTrainer("misty"), false, time.Now().UTC())
		require.NoError(t, repo.Record(ctx, rec))
		assert.ErrorIs(t, repo.Record(ctx, rec), postgres.ErrRecordExists)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, postgres.ErrRecordNotFound)
	})

	t.Run("nil id rejected", func(t *testing.T) {
		rec := makeRecord(uniqueTrainer("brock"), true, time.Now().UTC())
		rec.ID = uuid.Nil
		assert.Error(t, repo.Record(ctx, rec))
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		trainer := uniqueTrainer("gary")
		base := time.Now().UTC().Truncate(time.Second)
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Record(ctx, makeRecord(trainer, i%2 == 0, base.Add(time.Duration(i)*time.Minute))))
		}
		all, err := repo.ListByTrainer(ctx, trainer, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.True(t, all[0].FinishedAt.After(all[1].FinishedAt))

		two, err := repo.ListByTrainer(ctx, trainer, 2)
		require.NoError(t, err)
		assert.Len(t, two, 2)
	})

	t.Run("summary", func(t *testing.T) {
		trainer := uniqueTrainer("red")
		now := time.Now().UTC()
		require.NoError(t, repo.Record(ctx, makeRecord(trainer, true, now)))
		require.NoError(t, repo.Record(ctx, makeRecord(trainer, true, now)))
		require.NoError(t, repo.Record(ctx, makeRecord(trainer, false, now)))
		s, err := repo.Summary(ctx, trainer)
		require.NoError(t, err)
		assert.Equal(t, history.Summary{Wins: 2, Losses: 1}, s)

		empty, err := repo.Summary(ctx, uniqueTrainer("nobody"))
		require.NoError(t, err)
		assert.Equal(t, history.Summary{}, empty)
	})

	t.Run("property: summary matches recorded outcomes", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			trainer := uniqueTrainer("prop")
			outcomes := rapid.SliceOfN(rapid.Bool(), 0, 6).Draw(rt, "outcomes")
			want := history.Summary{}
			for _, won := range outcomes {
				if won {
					want.Wins++
				} else {
					want.Losses++
				}
				if err := repo.Record(ctx, makeRecord(trainer, won, time.Now().UTC())); err != nil {
					rt.Fatalf("record: %v", err)
				}
			}
			got, err := repo.Summary(ctx, trainer)
			if err != nil {
				rt.Fatalf("summary: %v", err)
			}
			if got != want {
				rt.Fatalf("summary = %+v, want %+v", got, want)
			}
		})
	})
}
