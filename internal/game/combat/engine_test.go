package combat_test

import (
	"sync"
	"testing"

	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RegisterGetEnd(t *testing.T) {
	eng := combat.NewEngine()
	p, e := newPair(t)
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)

	require.NoError(t, eng.Register(b))
	assert.Error(t, eng.Register(b), "duplicate id")
	assert.Equal(t, 1, eng.Count())

	got, err := eng.Get(b.ID())
	require.NoError(t, err)
	assert.Same(t, b, got)

	eng.End(b.ID())
	_, err = eng.Get(b.ID())
	assert.ErrorIs(t, err, combat.ErrBattleNotFound)
	eng.End(b.ID())
	assert.Equal(t, 0, eng.Count())
}

func TestEngine_WithID(t *testing.T) {
	id := uuid.New()
	p, e := newPair(t)
	b, err := combat.NewBattle(p, e, noCrit, combat.WithID(id))
	require.NoError(t, err)
	assert.Equal(t, id, b.ID())
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	eng := combat.NewEngine()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, e := newPair(t)
			b, err := combat.NewBattle(p, e, noCrit)
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, eng.Register(b))
			_, err = eng.Get(b.ID())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, eng.Count())
}
