package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tallgrass/internal/config"
	"github.com/cory-johannsen/tallgrass/internal/game/catalog"
	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/encounter"
	"github.com/cory-johannsen/tallgrass/internal/game/history"
	"github.com/cory-johannsen/tallgrass/internal/game/move"
	"github.com/cory-johannsen/tallgrass/internal/game/session"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
	"github.com/cory-johannsen/tallgrass/internal/gameserver"
)

// ZeroSource is a dice.Source that always rolls zero.
type ZeroSource struct{}

// Intn returns 0.
func (ZeroSource) Intn(int) int { return 0 }

// Float64 returns 0.
func (ZeroSource) Float64() float64 { return 0 }

const meadowYAML = `id: meadow
name: Meadow
rate: 100
entries:
  - species: sprout
    level: "2"
    weight: 1
`

func uniformStats(base int) species.BaseStats {
	return species.BaseStats{
		MaxHP: base, Attack: base, Defense: base,
		SpAttack: base, SpDefense: base, Speed: base,
	}
}

// NewBattleHandler builds a BattleHandler over a tiny world for frontend
// tests: starters "champ" (level 50 one-shots anything with Megablast) and
// "weakling", and a "meadow" table whose every step meets a level 2 Sprout.
func NewBattleHandler(t *testing.T) (*gameserver.BattleHandler, *history.MemoryStore) {
	t.Helper()
	reg, err := catalog.New(
		[]*move.Definition{
			{ID: "megablast", Name: "Megablast", Type: element.Normal, Power: 250, Accuracy: 100, PP: 35},
			{ID: "nibble", Name: "Nibble", Type: element.Normal, Power: 10, Accuracy: 100, PP: 35},
		},
		[]*species.Definition{
			{ID: "champ", Name: "Champ", Starter: true, PrimaryType: element.Normal, Base: uniformStats(100),
				Learnset: []species.LearnableMove{{Level: 1, MoveID: "megablast"}}},
			{ID: "weakling", Name: "Weakling", Starter: true, PrimaryType: element.Normal, Base: uniformStats(20),
				Learnset: []species.LearnableMove{{Level: 1, MoveID: "nibble"}}},
			{ID: "sprout", Name: "Sprout", PrimaryType: element.Grass, Base: uniformStats(20),
				Learnset: []species.LearnableMove{{Level: 1, MoveID: "nibble"}}},
		},
	)
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "meadow.yaml"), []byte(meadowYAML), 0o644); err != nil {
		t.Fatalf("writing table: %v", err)
	}
	tables, err := encounter.LoadDirectory(dir, reg)
	if err != nil {
		t.Fatalf("loading tables: %v", err)
	}

	store := history.NewMemoryStore()
	h := gameserver.NewBattleHandler(reg, tables, combat.NewEngine(), session.NewManager(), store,
		config.BattleConfig{PlayerLevel: 50, Seed: 7, EncounterTable: "meadow", MaxExploreSteps: 5},
		gameserver.WithHandlerLogger(zaptest.NewLogger(t)),
		gameserver.WithWorldSource(ZeroSource{}),
	)
	return h, store
}
