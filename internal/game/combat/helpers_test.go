package combat_test

import (
	"context"
	"errors"
	"strings"

	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/move"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
)

// fixedSrc returns the same Intn value (clamped to n-1) and Float64 value.
type fixedSrc struct {
	val int
	f   float64
}

func (s fixedSrc) Intn(n int) int {
	if s.val >= n {
		return n - 1
	}
	return s.val
}

func (s fixedSrc) Float64() float64 { return s.f }

// noCrit never crits and has variance 1.0.
var noCrit = fixedSrc{val: 99, f: 1.0}

func moveDef(id string, t element.Type, power, pp int) *move.Definition {
	return &move.Definition{ID: id, Name: strings.ToUpper(id[:1]) + id[1:], Type: t, Power: power, Accuracy: 100, PP: pp}
}

func speciesDef(id string, t1, t2 element.Type, base int, moves ...*move.Definition) *species.Definition {
	def := &species.Definition{
		ID:            id,
		Name:          strings.ToUpper(id[:1]) + id[1:],
		PrimaryType:   t1,
		SecondaryType: t2,
		Base: species.BaseStats{
			MaxHP: base, Attack: base, Defense: base,
			SpAttack: base, SpDefense: base, Speed: base,
		},
	}
	for _, m := range moves {
		def.Learnset = append(def.Learnset, species.LearnableMove{Level: 1, MoveID: m.ID, Move: m})
	}
	return def
}

// recorder is a Sink that keeps every delivered event.
type recorder struct {
	events []combat.Event
	failAt int
	calls  int
}

var errSinkClosed = errors.New("sink closed")

func (r *recorder) Deliver(_ context.Context, ev combat.Event) error {
	r.calls++
	if r.failAt > 0 && r.calls == r.failAt {
		return errSinkClosed
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) narration() []string {
	var out []string
	for _, ev := range r.events {
		if ev.Kind == combat.EventNarration {
			out = append(out, ev.Text)
		}
	}
	return out
}

func (r *recorder) count(kind combat.EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
