package combat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/dice"
	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/move"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

// fixedDamage deals 10 for the player and 1 for the enemy.
func fixedDamage(player *combat.Combatant) combat.Resolver {
	return func(attacker, defender *combat.Combatant, _ *move.Instance, _ dice.Source) combat.DamageOutcome {
		dmg := 1
		if attacker == player {
			dmg = 10
		}
		return combat.DamageOutcome{Effectiveness: 1, Critical: 1, Damage: dmg, Fainted: defender.ApplyDamage(dmg)}
	}
}

func newPair(t *testing.T, moves ...*move.Definition) (*combat.Combatant, *combat.Combatant) {
	t.Helper()
	if len(moves) == 0 {
		moves = []*move.Definition{moveDef("tackle", element.Normal, 40, 35)}
	}
	p, err := combat.NewCombatant(speciesDef("emberpup", element.Fire, element.None, 50, moves...), 10)
	require.NoError(t, err)
	e, err := combat.NewCombatant(speciesDef("pebbit", element.Rock, element.None, 50, moves...), 10)
	require.NoError(t, err)
	return p, e
}

func pumpToInput(t *testing.T, b *combat.Battle, rec *recorder) {
	t.Helper()
	require.NoError(t, b.Pump(context.Background(), rec))
}

func TestBattle_SetupAnnouncesAndAwaitsAction(t *testing.T) {
	p, e := newPair(t)
	b, err := combat.NewBattle(p, e, noCrit, combat.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, combat.StateStart, b.State())
	assert.False(t, b.AwaitingInput())

	rec := &recorder{}
	pumpToInput(t, b, rec)

	assert.Equal(t, combat.StatePlayerAction, b.State())
	assert.True(t, b.AwaitingInput())
	assert.Equal(t, []string{"A wild Pebbit appeared.", "Choose an action"}, rec.narration())
	assert.Equal(t, 2, rec.count(combat.EventHP))
	require.GreaterOrEqual(t, len(rec.events), 2)
	assert.Equal(t, combat.EventHP, rec.events[0].Kind)
	assert.Equal(t, combat.SidePlayer, rec.events[0].Side)
	assert.Equal(t, combat.SideEnemy, rec.events[1].Side)
}

func TestBattle_NewBattleRejectsEmptyMoves(t *testing.T) {
	p, e := newPair(t)
	e.Moves = nil
	_, err := combat.NewBattle(p, e, noCrit)
	assert.ErrorIs(t, err, combat.ErrNoMoves)
}

func TestBattle_FullTurnNarrationOrder(t *testing.T) {
	p, e := newPair(t, moveDef("boulder", element.Rock, 40, 25))
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	rec := &recorder{}
	pumpToInput(t, b, rec)
	rec.events = nil

	ctx := context.Background()
	require.NoError(t, b.Submit(ctx, combat.InputConfirm))
	assert.Equal(t, combat.StatePlayerMove, b.State())
	require.NoError(t, b.Submit(ctx, combat.InputConfirm))
	assert.Equal(t, combat.StateBusy, b.State())
	assert.ErrorIs(t, b.Submit(ctx, combat.InputUp), combat.ErrBusy)

	pumpToInput(t, b, rec)
	assert.Equal(t, combat.StatePlayerAction, b.State())
	assert.Equal(t, []string{
		"Emberpup used Boulder",
		"It's not very effective!",
		"Pebbit used Boulder",
		"It's super effective!",
		"Choose an action",
	}, rec.narration())
	assert.Equal(t, 24, p.Moves[0].UsesRemaining)
	assert.Equal(t, 24, e.Moves[0].UsesRemaining)
	assert.Equal(t, 1, b.Turns())

	var states []combat.State
	for _, ev := range rec.events {
		if ev.Kind == combat.EventState {
			states = append(states, ev.State)
		}
	}
	assert.Equal(t, []combat.State{combat.StatePlayerMove, combat.StateBusy, combat.StateEnemyMove, combat.StatePlayerAction}, states)
}

func TestBattle_AdvanceRunsOneStep(t *testing.T) {
	p, e := newPair(t)
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	ctx := context.Background()

	evs, err := b.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, combat.StateStart, b.State())
	assert.NotEmpty(t, evs)

	evs, err = b.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, combat.StatePlayerAction, b.State())
	require.Len(t, evs, 2)
	assert.Equal(t, combat.EventState, evs[0].Kind)

	evs, err = b.Advance(ctx)
	require.NoError(t, err)
	assert.Nil(t, evs)
}

// Enemy starts at 30 HP and the player deals 10 per turn.
func TestBattle_PlayerWinsAfterThreeHits(t *testing.T) {
	p, e := newPair(t)
	e.MaxHP, e.HP = 30, 30
	b, err := combat.NewBattle(p, e, noCrit, combat.WithResolver(fixedDamage(p)))
	require.NoError(t, err)
	rec := &recorder{}
	pumpToInput(t, b, rec)
	ctx := context.Background()

	for turn := 1; turn <= 3; turn++ {
		require.NoError(t, b.SelectMove(ctx, 0), "turn %d", turn)
		before := len(rec.events)
		pumpToInput(t, b, rec)
		assert.Equal(t, 30-10*turn, e.HP)
		if turn < 3 {
			assert.Equal(t, combat.StatePlayerAction, b.State())
			continue
		}
		tail := rec.events[before:]
		for _, ev := range tail {
			assert.NotEqual(t, "Pebbit used Tackle", ev.Text, "enemy must not act after fainting")
		}
	}

	assert.Equal(t, 0, e.HP)
	assert.True(t, e.Fainted())
	assert.Equal(t, combat.StateBattleOver, b.State())
	assert.True(t, b.Over())
	assert.True(t, b.PlayerWon())
	assert.False(t, b.Pending())
	assert.Equal(t, 1, rec.count(combat.EventBattleOver))
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, combat.EventBattleOver, last.Kind)
	assert.True(t, last.PlayerWon)
	assert.Contains(t, rec.narration(), "Pebbit fainted")
	assert.Equal(t, p.MaxHP-2, p.HP, "enemy acted only after the first two turns")

	assert.ErrorIs(t, b.Submit(ctx, combat.InputConfirm), combat.ErrBattleOver)
	assert.ErrorIs(t, b.SelectMove(ctx, 0), combat.ErrBattleOver)
}

func TestBattle_EnemyWins(t *testing.T) {
	p, e := newPair(t)
	p.HP = 1
	b, err := combat.NewBattle(p, e, noCrit, combat.WithResolver(fixedDamage(p)))
	require.NoError(t, err)
	rec := &recorder{}
	pumpToInput(t, b, rec)

	require.NoError(t, b.SelectMove(context.Background(), 0))
	pumpToInput(t, b, rec)

	assert.Equal(t, combat.StateBattleOver, b.State())
	assert.False(t, b.PlayerWon())
	assert.Contains(t, rec.narration(), "Emberpup fainted")
	assert.Equal(t, 1, rec.count(combat.EventBattleOver))
	assert.False(t, rec.events[len(rec.events)-1].PlayerWon)
}

func TestBattle_RunIsNoOp(t *testing.T) {
	p, e := newPair(t)
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	rec := &recorder{}
	pumpToInput(t, b, rec)
	ctx := context.Background()

	require.NoError(t, b.Submit(ctx, combat.InputDown))
	assert.Equal(t, int(combat.ActionRun), b.ActionCursor())
	require.NoError(t, b.Submit(ctx, combat.InputDown))
	assert.Equal(t, int(combat.ActionRun), b.ActionCursor(), "cursor clamps at the last action")

	require.NoError(t, b.Submit(ctx, combat.InputConfirm))
	evs, err := b.Advance(ctx)
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.Equal(t, combat.StatePlayerAction, b.State())

	require.NoError(t, b.Submit(ctx, combat.InputUp))
	require.NoError(t, b.Submit(ctx, combat.InputUp))
	assert.Equal(t, int(combat.ActionFight), b.ActionCursor())
}

func TestBattle_MoveGridCursor(t *testing.T) {
	moves := []*move.Definition{
		moveDef("a", element.Normal, 10, 5), moveDef("b", element.Normal, 10, 5),
		moveDef("c", element.Normal, 10, 5), moveDef("d", element.Normal, 10, 5),
	}
	p, e := newPair(t, moves...)
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	pumpToInput(t, b, &recorder{})
	ctx := context.Background()
	require.NoError(t, b.SelectAction(ctx, combat.ActionFight))

	steps := []struct {
		in   combat.Input
		want int
	}{
		{combat.InputRight, 1},
		{combat.InputRight, 2},
		{combat.InputRight, 3},
		{combat.InputRight, 3},
		{combat.InputUp, 1},
		{combat.InputUp, 1},
		{combat.InputDown, 3},
		{combat.InputLeft, 2},
		{combat.InputUp, 0},
		{combat.InputLeft, 0},
		{combat.InputDown, 2},
		{combat.InputDown, 2},
	}
	for i, s := range steps {
		require.NoError(t, b.Submit(ctx, s.in))
		assert.Equal(t, s.want, b.MoveCursor(), "step %d (%s)", i, s.in)
	}

	require.NoError(t, b.Submit(ctx, combat.InputConfirm))
	pumpToInput(t, b, &recorder{})
	assert.Equal(t, 4, p.Moves[2].UsesRemaining)
	assert.Equal(t, 5, p.Moves[0].UsesRemaining)
}

func TestBattle_MoveCursor_Property_InRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(rt, "moves")
		var defs []*move.Definition
		for i := 0; i < n; i++ {
			defs = append(defs, moveDef(string(rune('a'+i)), element.Normal, 10, 5))
		}
		p, err := combat.NewCombatant(speciesDef("p", element.Normal, element.None, 50, defs...), 10)
		require.NoError(rt, err)
		e, err := combat.NewCombatant(speciesDef("e", element.Normal, element.None, 50, defs...), 10)
		require.NoError(rt, err)
		b, err := combat.NewBattle(p, e, noCrit)
		require.NoError(rt, err)
		ctx := context.Background()
		require.NoError(rt, b.Pump(ctx, &recorder{}))
		require.NoError(rt, b.SelectAction(ctx, combat.ActionFight))

		inputs := rapid.SliceOf(rapid.SampledFrom([]combat.Input{
			combat.InputUp, combat.InputDown, combat.InputLeft, combat.InputRight,
		})).Draw(rt, "inputs")
		for _, in := range inputs {
			require.NoError(rt, b.Submit(ctx, in))
			assert.GreaterOrEqual(rt, b.MoveCursor(), 0)
			assert.Less(rt, b.MoveCursor(), n)
		}
	})
}

func TestBattle_SelectMove_Validation(t *testing.T) {
	p, e := newPair(t, moveDef("a", element.Normal, 10, 1), moveDef("b", element.Normal, 10, 5))
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, b.SelectMove(ctx, 0), combat.ErrBusy, "setup still pending")
	pumpToInput(t, b, &recorder{})

	err = b.SelectMove(ctx, 4)
	var idxErr *combat.MoveIndexError
	require.True(t, errors.As(err, &idxErr))
	assert.Equal(t, 4, idxErr.Index)
	assert.Equal(t, 2, idxErr.Known)
	assert.ErrorAs(t, b.SelectMove(ctx, -1), &idxErr)
	assert.Equal(t, combat.StatePlayerAction, b.State())

	require.NoError(t, b.SelectMove(ctx, 0))
	pumpToInput(t, b, &recorder{})
	assert.Equal(t, 0, p.Moves[0].UsesRemaining)

	assert.ErrorIs(t, b.SelectMove(ctx, 0), combat.ErrNoUsesRemaining)
	assert.Equal(t, combat.StatePlayerAction, b.State())
	require.NoError(t, b.SelectMove(ctx, 1))
}

func TestBattle_SelectAction_WrongState(t *testing.T) {
	p, e := newPair(t)
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	pumpToInput(t, b, &recorder{})
	ctx := context.Background()

	assert.Error(t, b.SelectAction(ctx, combat.Action(7)))
	require.NoError(t, b.SelectAction(ctx, combat.ActionFight))
	assert.ErrorIs(t, b.SelectAction(ctx, combat.ActionFight), combat.ErrWrongState)
}

func TestBattle_AllMovesExhaustedStillPlayable(t *testing.T) {
	p, e := newPair(t, moveDef("a", element.Normal, 10, 1))
	p.Moves[0].UsesRemaining = 0
	e.Moves[0].UsesRemaining = 0
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	rec := &recorder{}
	pumpToInput(t, b, rec)

	require.NoError(t, b.SelectMove(context.Background(), 0))
	pumpToInput(t, b, rec)
	assert.Equal(t, 0, p.Moves[0].UsesRemaining)
	assert.Equal(t, 0, e.Moves[0].UsesRemaining)
	assert.Contains(t, rec.narration(), "Pebbit used A")
}

func TestBattle_EnemyPrefersMovesWithUses(t *testing.T) {
	p, e := newPair(t, moveDef("a", element.Normal, 10, 5), moveDef("b", element.Normal, 10, 5))
	e.Moves[0].UsesRemaining = 0
	b, err := combat.NewBattle(p, e, fixedSrc{val: 0, f: 1.0}, combat.WithResolver(fixedDamage(p)))
	require.NoError(t, err)
	rec := &recorder{}
	pumpToInput(t, b, rec)

	require.NoError(t, b.SelectMove(context.Background(), 0))
	pumpToInput(t, b, rec)
	assert.Contains(t, rec.narration(), "Pebbit used B")
	assert.Equal(t, 4, e.Moves[1].UsesRemaining)
	assert.Equal(t, 4, p.Moves[0].UsesRemaining)
	assert.Equal(t, 5, p.Moves[1].UsesRemaining, "only the executed move loses a use")
}

func TestBattle_PumpRedeliversAfterSinkError(t *testing.T) {
	p, e := newPair(t)
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	ctx := context.Background()

	failing := &recorder{failAt: 2}
	err = b.Pump(ctx, failing)
	assert.ErrorIs(t, err, errSinkClosed)
	require.Len(t, failing.events, 1)

	rest := &recorder{}
	require.NoError(t, b.Pump(ctx, rest))
	all := append(failing.events, rest.events...)

	fresh := &recorder{}
	p2, e2 := newPair(t)
	b2, err := combat.NewBattle(p2, e2, noCrit)
	require.NoError(t, err)
	require.NoError(t, b2.Pump(ctx, fresh))
	assert.Equal(t, fresh.events, all, "no event lost or duplicated")
}

func TestBattle_Restart(t *testing.T) {
	p, e := newPair(t)
	e.HP = 1
	b, err := combat.NewBattle(p, e, noCrit, combat.WithResolver(fixedDamage(p)))
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, b.Restart(ctx, p, e), combat.ErrWrongState)

	rec := &recorder{}
	pumpToInput(t, b, rec)
	require.NoError(t, b.SelectMove(ctx, 0))
	pumpToInput(t, b, rec)
	require.True(t, b.Over())

	p2, e2 := newPair(t)
	require.NoError(t, b.Restart(ctx, p2, e2))
	assert.Equal(t, combat.StateStart, b.State())
	assert.False(t, b.Over())
	assert.Equal(t, 0, b.Turns())

	rec2 := &recorder{}
	pumpToInput(t, b, rec2)
	assert.Equal(t, combat.StatePlayerAction, b.State())
	assert.Same(t, e2, b.Enemy())
}

func TestBattle_View(t *testing.T) {
	p, e := newPair(t, moveDef("ember", element.Fire, 40, 25))
	b, err := combat.NewBattle(p, e, noCrit)
	require.NoError(t, err)
	pumpToInput(t, b, &recorder{})

	v := b.View()
	assert.Equal(t, b.ID().String(), v.ID)
	assert.Equal(t, combat.StatePlayerAction, v.State)
	assert.True(t, v.AwaitingInput)
	assert.Equal(t, "Emberpup", v.Player.Name)
	assert.Equal(t, []element.Type{element.Fire}, v.Player.Types)
	require.Len(t, v.Moves, 1)
	assert.Equal(t, "Ember", v.Moves[0].Name)
	assert.Equal(t, 25, v.Moves[0].UsesRemaining)
}

func TestBattle_SeededBattlesAreReproducible(t *testing.T) {
	play := func() []combat.Event {
		p, e := newPair(t, moveDef("ember", element.Fire, 40, 25), moveDef("tackle", element.Normal, 40, 35))
		b, err := combat.NewBattle(p, e, dice.NewSeededSource(7))
		require.NoError(t, err)
		rec := &recorder{}
		ctx := context.Background()
		require.NoError(t, b.Pump(ctx, rec))
		for !b.Over() {
			require.NoError(t, b.SelectMove(ctx, 1))
			require.NoError(t, b.Pump(ctx, rec))
		}
		return rec.events
	}
	assert.Equal(t, play(), play())
}

func TestParseInput(t *testing.T) {
	in, err := combat.ParseInput("Confirm")
	require.NoError(t, err)
	assert.Equal(t, combat.InputConfirm, in)
	_, err = combat.ParseInput("jump")
	assert.Error(t, err)
	assert.Equal(t, "left", combat.InputLeft.String())
}
