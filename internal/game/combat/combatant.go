// Package combat implements the two-combatant battle core: combatant
// construction, damage resolution and the turn engine state machine.
package combat

import (
	"fmt"

	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/move"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
)

// Stat derives Attack, Defense, SpAttack or SpDefense from a base stat.
//
// Postcondition: Returns floor(base*level/100) + 5.
func Stat(base, level int) int {
	return base*level/100 + 5
}

// SpeedStat derives Speed from its base stat.
//
// Postcondition: Returns floor(base*level/100) + 10.
func SpeedStat(base, level int) int {
	return base*level/100 + 10
}

// MaxHPStat derives MaxHP from its base stat.
//
// Postcondition: Returns floor(base*level/100) + 10.
func MaxHPStat(base, level int) int {
	return base*level/100 + 10
}

// Combatant is one battle participant built from a species and a level.
// It is owned by the battle that created it.
//
// Invariant: 0 <= HP <= MaxHP; len(Moves) <= species.MaxKnownMoves.
type Combatant struct {
	Species   *species.Definition
	Level     int
	MaxHP     int
	Attack    int
	Defense   int
	SpAttack  int
	SpDefense int
	Speed     int
	HP        int
	Moves     []*move.Instance
	// LastDamage is the most recent damage taken, kept for display.
	LastDamage int
}

// NewCombatant builds a full-health combatant knowing the first four
// learnset moves unlocked at level.
//
// Precondition: def must not be nil and its learnset must be resolved.
// Postcondition: Returns ErrInvalidLevel when level < 1 and ErrNoMoves when
// no move is unlocked at level; otherwise HP == MaxHP.
func NewCombatant(def *species.Definition, level int) (*Combatant, error) {
	if level < 1 {
		return nil, fmt.Errorf("%s at level %d: %w", def.ID, level, ErrInvalidLevel)
	}
	known := def.MovesAt(level)
	if len(known) == 0 {
		return nil, fmt.Errorf("%s at level %d: %w", def.ID, level, ErrNoMoves)
	}
	c := &Combatant{
		Species:   def,
		Level:     level,
		MaxHP:     MaxHPStat(def.Base.MaxHP, level),
		Attack:    Stat(def.Base.Attack, level),
		Defense:   Stat(def.Base.Defense, level),
		SpAttack:  Stat(def.Base.SpAttack, level),
		SpDefense: Stat(def.Base.SpDefense, level),
		Speed:     SpeedStat(def.Base.Speed, level),
		Moves:     make([]*move.Instance, 0, len(known)),
	}
	c.HP = c.MaxHP
	for _, m := range known {
		c.Moves = append(c.Moves, move.NewInstance(m))
	}
	return c, nil
}

// Name returns the species display name.
func (c *Combatant) Name() string { return c.Species.Name }

// Types returns the primary and secondary element types.
func (c *Combatant) Types() (element.Type, element.Type) {
	return c.Species.PrimaryType, c.Species.SecondaryType
}

// Fainted reports whether HP has reached zero.
func (c *Combatant) Fainted() bool { return c.HP == 0 }

// ApplyDamage subtracts amount from HP, flooring at zero, and records it as
// LastDamage.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= HP; returns true iff HP == 0 afterwards.
func (c *Combatant) ApplyDamage(amount int) bool {
	c.LastDamage = amount
	c.HP -= amount
	if c.HP < 0 {
		c.HP = 0
	}
	return c.HP == 0
}

// UsableMoves returns the indexes of moves with uses remaining.
func (c *Combatant) UsableMoves() []int {
	var idx []int
	for i, m := range c.Moves {
		if m.CanUse() {
			idx = append(idx, i)
		}
	}
	return idx
}
