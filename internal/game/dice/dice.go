// Package dice provides the randomness abstraction used by battles and
// encounters, plus dice-expression rolling for content such as wild levels.
package dice

import (
	"fmt"
	"strings"
)

// Source is the randomness provider for dice rolls, critical-hit checks,
// damage variance, and enemy move choice.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// RollResult records the individual dice and modifier of one evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll as "1d4+2 [3] = 5".
func (r RollResult) String() string {
	parts := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		parts[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s [%s] = %d", r.Expression, strings.Join(parts, " "), r.Total())
}
