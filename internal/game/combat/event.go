package combat

import (
	"context"
	"fmt"
)

// Side identifies one of the two combatants.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

// String returns "player" or "enemy".
func (s Side) String() string {
	if s == SideEnemy {
		return "enemy"
	}
	return "player"
}

// EventKind distinguishes the payload carried by an Event.
type EventKind int

const (
	// EventNarration carries a line of battle text.
	EventNarration EventKind = iota
	// EventHP carries a HUD update for one side.
	EventHP
	// EventState announces a state machine transition.
	EventState
	// EventBattleOver is emitted exactly once when the battle ends.
	EventBattleOver
)

// String returns the wire name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventNarration:
		return "narration"
	case EventHP:
		return "hp"
	case EventState:
		return "state"
	case EventBattleOver:
		return "battle_over"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one observable output of the turn engine, in production order.
type Event struct {
	Kind      EventKind
	Text      string
	Side      Side
	HP        int
	MaxHP     int
	State     State
	PlayerWon bool
}

func narration(format string, args ...any) Event {
	return Event{Kind: EventNarration, Text: fmt.Sprintf(format, args...)}
}

func hpEvent(side Side, c *Combatant) Event {
	return Event{Kind: EventHP, Side: side, HP: c.HP, MaxHP: c.MaxHP}
}

// Sink receives events from Battle.Pump. Returning nil acknowledges the
// event; an error stops pumping and the event is redelivered next time.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Deliver calls f(ctx, ev).
func (f SinkFunc) Deliver(ctx context.Context, ev Event) error { return f(ctx, ev) }
