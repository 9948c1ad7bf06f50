package combat

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when input arrives while a turn is resolving.
	ErrBusy = errors.New("combat: battle is busy resolving a turn")
	// ErrBattleOver is returned for input after the battle has ended.
	ErrBattleOver = errors.New("combat: battle is over")
	// ErrWrongState is returned when an input is not valid in the current state.
	ErrWrongState = errors.New("combat: input not accepted in current state")
	// ErrNoUsesRemaining is returned when the player selects an exhausted move.
	ErrNoUsesRemaining = errors.New("combat: move has no uses remaining")
	// ErrNoMoves is returned when a combatant would know no moves.
	ErrNoMoves = errors.New("combat: combatant knows no moves")
	// ErrInvalidLevel is returned for a level below 1.
	ErrInvalidLevel = errors.New("combat: level must be >= 1")
	// ErrBattleNotFound is returned by Engine lookups for an unknown id.
	ErrBattleNotFound = errors.New("combat: battle not found")
)

// MoveIndexError reports a move selection outside the known moves.
type MoveIndexError struct {
	Index int
	Known int
}

func (e *MoveIndexError) Error() string {
	return fmt.Sprintf("combat: move index %d out of range [0, %d)", e.Index, e.Known)
}
