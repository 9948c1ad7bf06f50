package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tallgrass/internal/frontend/telnet"
	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/command"
	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/history"
	"github.com/cory-johannsen/tallgrass/internal/game/session"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
)

func sampleView() combat.View {
	return combat.View{
		State:         combat.StatePlayerMove,
		AwaitingInput: true,
		MoveCursor:    1,
		Player:        combat.CombatantView{Name: "Emberling", Level: 5, HP: 10, MaxHP: 20},
		Enemy:         combat.CombatantView{Name: "Sprout", Level: 3, HP: 0, MaxHP: 16},
		Moves: []combat.MoveView{
			{Name: "Tackle", Type: element.Normal, Power: 40, UsesRemaining: 35, MaxUses: 35},
			{Name: "Ember", Type: element.Fire, Power: 40, UsesRemaining: 0, MaxUses: 25},
			{Name: "Growl", Type: element.Normal, Power: 0, UsesRemaining: 40, MaxUses: 40},
		},
	}
}

func TestRenderHPBar(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat("#", 10)+strings.Repeat("-", 10)+"]", RenderHPBar(10, 20))
	assert.Equal(t, "["+strings.Repeat("-", 20)+"]", RenderHPBar(0, 20))
	assert.Equal(t, "[#"+strings.Repeat("-", 19)+"]", RenderHPBar(1, 100), "a sliver of HP still shows")
	assert.Equal(t, "["+strings.Repeat("#", 20)+"]", RenderHPBar(20, 20))
}

func TestRenderHPBar_Property_FixedWidth(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 999).Draw(rt, "max")
		hp := rapid.IntRange(0, maxHP).Draw(rt, "hp")
		bar := RenderHPBar(hp, maxHP)
		if len(bar) != hpBarWidth+2 {
			rt.Fatalf("bar %q has width %d", bar, len(bar))
		}
		if hp > 0 && !strings.Contains(bar, "#") {
			rt.Fatalf("bar %q empty with hp %d", bar, hp)
		}
	})
}

func TestRenderHUD(t *testing.T) {
	got := telnet.StripANSI(RenderHUD(sampleView().Player))
	assert.True(t, strings.HasPrefix(got, "Emberling Lv5 ["), got)
	assert.True(t, strings.HasSuffix(got, "] 10/20"), got)
}

func TestRenderHPUpdate_UsesEventHP(t *testing.T) {
	v := sampleView()
	got := telnet.StripANSI(RenderHPUpdate(combat.Event{Kind: combat.EventHP, Side: combat.SideEnemy, HP: 4, MaxHP: 16}, v))
	assert.Contains(t, got, "Sprout Lv3")
	assert.Contains(t, got, "4/16")
}

func TestRenderActionMenu(t *testing.T) {
	v := sampleView()
	v.ActionCursor = int(combat.ActionRun)
	got := telnet.StripANSI(RenderActionMenu(v))
	assert.Contains(t, got, "  Fight")
	assert.Contains(t, got, "> Run")
}

func TestRenderMoveMenu(t *testing.T) {
	got := telnet.StripANSI(RenderMoveMenu(sampleView()))
	lines := strings.Split(strings.TrimRight(got, "\r\n"), "\r\n")
	assert.Len(t, lines, 2, "three moves fill two rows")
	assert.Contains(t, lines[0], "1. Tackle")
	assert.Contains(t, lines[0], "> 2. Ember")
	assert.Contains(t, lines[0], " 0/25")
	assert.Contains(t, lines[1], "3. Growl")
}

func TestRenderBattle(t *testing.T) {
	v := sampleView()
	got := telnet.StripANSI(RenderBattle(v))
	assert.Less(t, strings.Index(got, "Sprout"), strings.Index(got, "Emberling"), "enemy HUD first")
	assert.Contains(t, got, "Tackle")

	v.State = combat.StatePlayerAction
	got = telnet.StripANSI(RenderBattle(v))
	assert.Contains(t, got, "Fight")
	assert.NotContains(t, got, "Tackle")

	v.State = combat.StateBusy
	got = telnet.StripANSI(RenderBattle(v))
	assert.NotContains(t, got, "Fight")
}

func TestRenderStarters(t *testing.T) {
	got := telnet.StripANSI(RenderStarters([]*species.Definition{
		{ID: "emberling", Name: "Emberling", PrimaryType: element.Fire},
		{ID: "tidepup", Name: "Tidepup", PrimaryType: element.Water, SecondaryType: element.Ice},
	}))
	assert.Contains(t, got, "1. Emberling")
	assert.Contains(t, got, "Fire")
	assert.Contains(t, got, "2. Tidepup")
	assert.Contains(t, got, "Water/Ice")
}

func TestRenderStatus(t *testing.T) {
	sess := session.TrainerSession{Name: "Ash", Wins: 3, Losses: 1}
	got := telnet.StripANSI(RenderStatus(sess, "Emberling"))
	assert.Contains(t, got, "Trainer Ash with Emberling")
	assert.Contains(t, got, "roaming")
	assert.Contains(t, got, "3-1")

	sess.Mode = session.ModeBattle
	assert.Contains(t, telnet.StripANSI(RenderStatus(sess, "Emberling")), "in a battle")
}

func TestRenderRecords(t *testing.T) {
	assert.Contains(t, telnet.StripANSI(RenderRecords(nil)), "No battles yet")

	got := telnet.StripANSI(RenderRecords([]history.Record{
		{PlayerSpecies: "emberling", PlayerLevel: 5, EnemySpecies: "sprout", EnemyLevel: 3, PlayerWon: true, Turns: 2,
			FinishedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)},
		{PlayerSpecies: "emberling", PlayerLevel: 5, EnemySpecies: "boulder", EnemyLevel: 9, Turns: 4},
	}))
	assert.Contains(t, got, "WON  emberling Lv5 vs sprout Lv3 in 2 turns (2026-03-01 12:30)")
	assert.Contains(t, got, "LOST emberling Lv5 vs boulder Lv9")
}

func TestRenderHelp(t *testing.T) {
	reg := command.DefaultRegistry()
	got := telnet.StripANSI(RenderHelp(reg, command.CategoryBattle))
	assert.Contains(t, got, "fight (f)")
	assert.Contains(t, got, "up (w)")
	assert.NotContains(t, got, "explore")
}

func TestNarrationColor(t *testing.T) {
	for _, text := range []string{"A critical hit!", "It's super effective!", "It's not very effective!", "Sprout fainted", "Choose an action"} {
		assert.Equal(t, text, telnet.StripANSI(narrationColor(text)))
	}
	assert.Contains(t, narrationColor("Sprout fainted"), telnet.BrightRed)
}
