package combat_test

import (
	"testing"

	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStatFormulas(t *testing.T) {
	assert.Equal(t, 10, combat.Stat(50, 10))
	assert.Equal(t, 15, combat.SpeedStat(50, 10))
	assert.Equal(t, 15, combat.MaxHPStat(50, 10))
	assert.Equal(t, 5+49*37/100, combat.Stat(49, 37))
}

func TestMaxHPStat_Property_FormulaAndMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.IntRange(1, 255).Draw(rt, "base")
		level := rapid.IntRange(1, 99).Draw(rt, "level")
		hp := combat.MaxHPStat(base, level)
		assert.Equal(rt, base*level/100+10, hp)
		assert.LessOrEqual(rt, hp, combat.MaxHPStat(base, level+1))
	})
}

func TestNewCombatant_DerivesStatsAndFullHP(t *testing.T) {
	def := speciesDef("pebbit", element.Rock, element.Ground, 50, moveDef("tackle", element.Normal, 40, 35))
	def.Base.Speed = 80
	def.Base.SpAttack = 20

	c, err := combat.NewCombatant(def, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Level)
	assert.Equal(t, 15, c.MaxHP)
	assert.Equal(t, c.MaxHP, c.HP)
	assert.Equal(t, 10, c.Attack)
	assert.Equal(t, 10, c.Defense)
	assert.Equal(t, 7, c.SpAttack)
	assert.Equal(t, 18, c.Speed)
	require.Len(t, c.Moves, 1)
	assert.Equal(t, 35, c.Moves[0].UsesRemaining)
	assert.Equal(t, "Pebbit", c.Name())
	t1, t2 := c.Types()
	assert.Equal(t, element.Rock, t1)
	assert.Equal(t, element.Ground, t2)
}

func TestNewCombatant_KnowsAtMostFourInLearnsetOrder(t *testing.T) {
	def := speciesDef("x", element.Normal, element.None, 40)
	for i, lv := range []int{1, 8, 2, 1, 3, 1} {
		m := moveDef(string(rune('a'+i)), element.Normal, 10, 5)
		def.Learnset = append(def.Learnset, species.LearnableMove{Level: lv, MoveID: m.ID, Move: m})
	}

	c, err := combat.NewCombatant(def, 3)
	require.NoError(t, err)
	var ids []string
	for _, m := range c.Moves {
		ids = append(ids, m.Def.ID)
	}
	assert.Equal(t, []string{"a", "c", "d", "e"}, ids)

	c, err = combat.NewCombatant(def, 1)
	require.NoError(t, err)
	assert.Len(t, c.Moves, 3)
}

func TestNewCombatant_Errors(t *testing.T) {
	def := speciesDef("x", element.Normal, element.None, 40, moveDef("tackle", element.Normal, 40, 35))

	_, err := combat.NewCombatant(def, 0)
	assert.ErrorIs(t, err, combat.ErrInvalidLevel)

	late := speciesDef("y", element.Normal, element.None, 40)
	m := moveDef("tackle", element.Normal, 40, 35)
	late.Learnset = []species.LearnableMove{{Level: 10, MoveID: m.ID, Move: m}}
	_, err = combat.NewCombatant(late, 5)
	assert.ErrorIs(t, err, combat.ErrNoMoves)
}

func TestApplyDamage_ClampsAndRecords(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 300).Draw(rt, "max_hp")
		dmg := rapid.IntRange(0, 600).Draw(rt, "damage")
		c := &combat.Combatant{MaxHP: maxHP, HP: maxHP}

		fainted := c.ApplyDamage(dmg)
		assert.GreaterOrEqual(rt, c.HP, 0)
		assert.LessOrEqual(rt, c.HP, maxHP)
		assert.Equal(rt, c.HP == 0, fainted)
		assert.Equal(rt, fainted, c.Fainted())
		assert.Equal(rt, dmg, c.LastDamage)
	})
}

func TestUsableMoves(t *testing.T) {
	def := speciesDef("x", element.Normal, element.None, 40,
		moveDef("a", element.Normal, 10, 1), moveDef("b", element.Normal, 10, 2))
	c, err := combat.NewCombatant(def, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, c.UsableMoves())
	c.Moves[0].Use()
	assert.Equal(t, []int{1}, c.UsableMoves())
}
