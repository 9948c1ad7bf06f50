package combat

import "github.com/cory-johannsen/tallgrass/internal/game/element"

// CombatantView is a read-only snapshot of one side for presentation.
type CombatantView struct {
	Name    string         `json:"name"`
	Species string         `json:"species"`
	Level   int            `json:"level"`
	HP      int            `json:"hp"`
	MaxHP   int            `json:"max_hp"`
	Types   []element.Type `json:"types"`
}

// MoveView describes one of the player's moves for the move menu.
type MoveView struct {
	Name          string       `json:"name"`
	Type          element.Type `json:"type"`
	Power         int          `json:"power"`
	UsesRemaining int          `json:"uses_remaining"`
	MaxUses       int          `json:"max_uses"`
}

// View is a snapshot of everything a frontend needs to draw the battle.
type View struct {
	ID            string        `json:"id"`
	State         State         `json:"state"`
	AwaitingInput bool          `json:"awaiting_input"`
	ActionCursor  int           `json:"action_cursor"`
	MoveCursor    int           `json:"move_cursor"`
	Player        CombatantView `json:"player"`
	Enemy         CombatantView `json:"enemy"`
	Moves         []MoveView    `json:"moves"`
}

func combatantView(c *Combatant) CombatantView {
	t1, t2 := c.Types()
	types := []element.Type{t1}
	if t2 != element.None {
		types = append(types, t2)
	}
	return CombatantView{
		Name:    c.Name(),
		Species: c.Species.ID,
		Level:   c.Level,
		HP:      c.HP,
		MaxHP:   c.MaxHP,
		Types:   types,
	}
}

// View returns a snapshot of the battle.
func (b *Battle) View() View {
	moves := make([]MoveView, len(b.player.Moves))
	for i, m := range b.player.Moves {
		moves[i] = MoveView{
			Name:          m.Def.Name,
			Type:          m.Def.Type,
			Power:         m.Def.Power,
			UsesRemaining: m.UsesRemaining,
			MaxUses:       m.Def.PP,
		}
	}
	return View{
		ID:            b.id.String(),
		State:         b.State(),
		AwaitingInput: b.AwaitingInput(),
		ActionCursor:  b.actionCursor,
		MoveCursor:    b.moveCursor,
		Player:        combatantView(b.player),
		Enemy:         combatantView(b.enemy),
		Moves:         moves,
	}
}
