package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/tallgrass/internal/frontend/telnet"
	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/command"
	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/encounter"
	"github.com/cory-johannsen/tallgrass/internal/game/history"
	"github.com/cory-johannsen/tallgrass/internal/game/session"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
)

// hpBarWidth is the number of cells in an HP bar.
const hpBarWidth = 20

// RenderHPBar draws hp/maxHP as a fixed-width bar, e.g. "[#####-----]".
//
// Postcondition: The bar always has hpBarWidth cells; any hp > 0 shows at
// least one filled cell.
func RenderHPBar(hp, maxHP int) string {
	filled := 0
	if maxHP > 0 && hp > 0 {
		filled = hp * hpBarWidth / maxHP
		if filled == 0 {
			filled = 1
		}
		if filled > hpBarWidth {
			filled = hpBarWidth
		}
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", hpBarWidth-filled) + "]"
}

// RenderHUD formats one side's name, level and HP.
func RenderHUD(c combat.CombatantView) string {
	return fmt.Sprintf("%s %s %s %s",
		telnet.Colorize(telnet.BrightWhite, c.Name),
		telnet.Colorf(telnet.Dim, "Lv%d", c.Level),
		telnet.Colorize(telnet.HPColor(c.HP, c.MaxHP), RenderHPBar(c.HP, c.MaxHP)),
		fmt.Sprintf("%d/%d", c.HP, c.MaxHP),
	)
}

// RenderHPUpdate formats an HP event for the side it names.
func RenderHPUpdate(ev combat.Event, v combat.View) string {
	c := v.Player
	if ev.Side == combat.SideEnemy {
		c = v.Enemy
	}
	c.HP, c.MaxHP = ev.HP, ev.MaxHP
	return RenderHUD(c)
}

func cursor(selected bool) string {
	if selected {
		return telnet.Colorize(telnet.BrightYellow, ">")
	}
	return " "
}

// RenderActionMenu draws the Fight/Run menu with the cursor on v.ActionCursor.
func RenderActionMenu(v combat.View) string {
	return fmt.Sprintf("%s %-8s %s %s",
		cursor(v.ActionCursor == int(combat.ActionFight)), combat.ActionFight,
		cursor(v.ActionCursor == int(combat.ActionRun)), combat.ActionRun,
	)
}

// RenderMoveMenu draws the known moves as a two-column grid with their slot
// numbers and remaining uses.
func RenderMoveMenu(v combat.View) string {
	var b strings.Builder
	for i, m := range v.Moves {
		color := telnet.White
		if m.UsesRemaining == 0 {
			color = telnet.Dim
		}
		cell := fmt.Sprintf("%d. %-14s %2d/%-2d", i+1, m.Name, m.UsesRemaining, m.MaxUses)
		b.WriteString(cursor(v.MoveCursor == i))
		b.WriteString(" ")
		b.WriteString(telnet.Colorize(color, cell))
		if i%2 == 1 || i == len(v.Moves)-1 {
			b.WriteString("\r\n")
		} else {
			b.WriteString("   ")
		}
	}
	return b.String()
}

// RenderBattle draws both HUDs followed by whichever menu is open.
func RenderBattle(v combat.View) string {
	var b strings.Builder
	b.WriteString(RenderHUD(v.Enemy))
	b.WriteString("\r\n")
	b.WriteString(RenderHUD(v.Player))
	b.WriteString("\r\n")
	switch v.State {
	case combat.StatePlayerAction:
		b.WriteString(RenderActionMenu(v))
		b.WriteString("\r\n")
	case combat.StatePlayerMove:
		b.WriteString(RenderMoveMenu(v))
	}
	return b.String()
}

// RenderStarters lists the selectable partner species, numbered from 1.
func RenderStarters(starters []*species.Definition) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightCyan, "Choose your partner:"))
	b.WriteString("\r\n")
	for i, s := range starters {
		types := s.PrimaryType.Title()
		if s.SecondaryType != element.None {
			types += "/" + s.SecondaryType.Title()
		}
		b.WriteString(fmt.Sprintf("  %s%d.%s %-12s %s%s%s\r\n",
			telnet.BrightYellow, i+1, telnet.Reset,
			s.Name,
			telnet.Dim, types, telnet.Reset))
	}
	return b.String()
}

// RenderStatus formats the trainer card.
func RenderStatus(sess session.TrainerSession, partner string) string {
	mode := "roaming the tall grass"
	if sess.Mode == session.ModeBattle {
		mode = "in a battle"
	}
	return telnet.Colorf(telnet.Cyan, "Trainer %s with %s, %s. Record: %d-%d",
		sess.Name, partner, mode, sess.Wins, sess.Losses)
}

// RenderRecords lists finished battles, newest first.
func RenderRecords(recs []history.Record) string {
	if len(recs) == 0 {
		return telnet.Colorize(telnet.Dim, "No battles yet.") + "\r\n"
	}
	var b strings.Builder
	for _, r := range recs {
		result := telnet.Colorize(telnet.Green, "WON ")
		if !r.PlayerWon {
			result = telnet.Colorize(telnet.Red, "LOST")
		}
		b.WriteString(fmt.Sprintf("%s %s Lv%d vs %s Lv%d in %d turns (%s)\r\n",
			result, r.PlayerSpecies, r.PlayerLevel, r.EnemySpecies, r.EnemyLevel,
			r.Turns, r.FinishedAt.UTC().Format("2006-01-02 15:04")))
	}
	return b.String()
}

// RenderTables lists the explorable areas.
func RenderTables(tables *encounter.Registry) string {
	var b strings.Builder
	for _, id := range tables.IDs() {
		t, _ := tables.Get(id)
		b.WriteString(fmt.Sprintf("  %s%-12s%s %s\r\n", telnet.BrightCyan, id, telnet.Reset, t.Name))
	}
	return b.String()
}

// RenderHelp lists the commands of the given categories.
func RenderHelp(reg *command.Registry, categories ...string) string {
	var b strings.Builder
	for _, cmd := range reg.InCategories(categories...) {
		name := cmd.Name
		if len(cmd.Aliases) > 0 {
			name += " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		b.WriteString(fmt.Sprintf("  %s%-22s%s %s\r\n", telnet.BrightCyan, name, telnet.Reset, cmd.Help))
	}
	return b.String()
}
