package catalog_test

import (
	"errors"
	"testing"

	"github.com/cory-johannsen/tallgrass/internal/game/catalog"
	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/move"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tackle() *move.Definition {
	return &move.Definition{ID: "tackle", Name: "Tackle", Type: element.Normal, Power: 40, Accuracy: 100, PP: 35}
}

func TestNew_ResolvesLearnset(t *testing.T) {
	sp := &species.Definition{ID: "pebbit", Name: "Pebbit", PrimaryType: element.Rock,
		Learnset: []species.LearnableMove{{Level: 1, MoveID: "tackle"}}}
	reg, err := catalog.New([]*move.Definition{tackle()}, []*species.Definition{sp})
	require.NoError(t, err)

	got, err := reg.Species("pebbit")
	require.NoError(t, err)
	require.NotNil(t, got.Learnset[0].Move)
	assert.Equal(t, "Tackle", got.Learnset[0].Move.Name)
}

func TestNew_UnknownLearnsetMove(t *testing.T) {
	sp := &species.Definition{ID: "pebbit", Name: "Pebbit", PrimaryType: element.Rock,
		Learnset: []species.LearnableMove{{Level: 1, MoveID: "meteor"}}}
	_, err := catalog.New([]*move.Definition{tackle()}, []*species.Definition{sp})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrUnknownMove))
}

func TestNew_DuplicateIDs(t *testing.T) {
	_, err := catalog.New([]*move.Definition{tackle(), tackle()}, nil)
	assert.Error(t, err)

	a := &species.Definition{ID: "x", Name: "X", PrimaryType: element.Fire}
	b := &species.Definition{ID: "x", Name: "X2", PrimaryType: element.Fire}
	_, err = catalog.New(nil, []*species.Definition{a, b})
	assert.Error(t, err)
}

func TestLookups_Unknown(t *testing.T) {
	reg, err := catalog.New(nil, nil)
	require.NoError(t, err)
	_, err = reg.Move("nope")
	assert.ErrorIs(t, err, catalog.ErrUnknownMove)
	_, err = reg.Species("nope")
	assert.ErrorIs(t, err, catalog.ErrUnknownSpecies)
}

func TestLoad_Content(t *testing.T) {
	reg, err := catalog.Load("../../../content")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, reg.MoveCount(), 20)
	starters := reg.Starters()
	require.Len(t, starters, 3)
	for _, s := range starters {
		assert.NotEmpty(t, s.MovesAt(1), "starter %s must know a move at level 1", s.ID)
	}
	for _, s := range reg.AllSpecies() {
		for _, lm := range s.Learnset {
			assert.NotNil(t, lm.Move, "%s learnset entry %s unresolved", s.ID, lm.MoveID)
		}
	}

	ember, err := reg.Move("ember")
	require.NoError(t, err)
	assert.Equal(t, move.Special, ember.Category())
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := catalog.Load(t.TempDir())
	assert.Error(t, err)
}
