package combat

import (
	"math"

	"github.com/cory-johannsen/tallgrass/internal/game/dice"
	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/move"
)

const (
	// critThreshold is compared against Intn(100); rolls <= it are critical.
	critThreshold  = 25
	critMultiplier = 2.0
	varianceFloor  = 0.85
	varianceSpan   = 0.15
	// float53 is the number of distinct Source.Float64 outcomes.
	float53 = 1 << 53
)

// DamageOutcome holds the result of one attack resolution.
type DamageOutcome struct {
	// Effectiveness is the combined type multiplier against both defender types.
	Effectiveness float64
	// Critical is 2.0 on a critical hit, 1.0 otherwise.
	Critical float64
	// Fainted is true iff the defender's HP reached 0 from this attack.
	Fainted bool
	// Damage is the amount applied to the defender.
	Damage int
}

// IsCritical reports whether the attack was a critical hit.
func (o DamageOutcome) IsCritical() bool { return o.Critical > 1 }

// SuperEffective reports whether the type multiplier exceeds 1.
func (o DamageOutcome) SuperEffective() bool { return o.Effectiveness > 1 }

// Resolver resolves one attack and applies its damage to defender.
type Resolver func(attacker, defender *Combatant, mv *move.Instance, src dice.Source) DamageOutcome

// ResolveAttack computes the damage of mv used by attacker against defender
// and applies it. Uses remaining are not touched.
//
// Draw order: one Intn(100) for the critical check, then one Float64 for
// variance in [0.85, 1.0].
//
// Precondition: attacker, defender, mv and src must be non-nil; defender
// defensive stats are >= 1.
// Postcondition: 0 <= defender.HP; result.Fainted iff defender.HP == 0;
// result.Damage == 0 when mv.Def.Power == 0.
func ResolveAttack(attacker, defender *Combatant, mv *move.Instance, src dice.Source) DamageOutcome {
	critical := 1.0
	if src.Intn(100) <= critThreshold {
		critical = critMultiplier
	}

	t1, t2 := defender.Types()
	effectiveness := element.Combined(mv.Def.Type, t1, t2)

	variance := damageVariance(src)

	attack, defense := float64(attacker.Attack), float64(defender.Defense)
	if mv.Def.Category() == move.Special {
		attack, defense = float64(attacker.SpAttack), float64(defender.SpDefense)
	}

	a := float64(2*attacker.Level+10) / 250.0
	d := a * float64(mv.Def.Power) * (attack / defense)
	damage := int(math.Floor(d * variance * effectiveness * critical))

	fainted := defender.ApplyDamage(damage)
	return DamageOutcome{
		Effectiveness: effectiveness,
		Critical:      critical,
		Fainted:       fainted,
		Damage:        damage,
	}
}

// damageVariance draws the random damage multiplier in [0.85, 1.0]. Float64
// outcomes are k/2^53, so rescaling k over 2^53-1 reaches 1.0 exactly.
func damageVariance(src dice.Source) float64 {
	k := math.Floor(src.Float64() * float53)
	u := math.Min(k/(float53-1), 1)
	return varianceFloor + varianceSpan*u
}
