// Package handlers implements the Telnet session flow: choosing a name and a
// partner, roaming the tall grass and driving battles from typed commands.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tallgrass/internal/frontend/telnet"
	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/command"
	"github.com/cory-johannsen/tallgrass/internal/game/session"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
	"github.com/cory-johannsen/tallgrass/internal/gameserver"
)

// recordLimit is how many battles the record command shows.
const recordLimit = 10

var welcomeBanner = []string{
	"",
	telnet.Colorize(telnet.BrightGreen, "  ~~~ T A L L G R A S S ~~~"),
	telnet.Colorize(telnet.Dim, "  Wild creatures lurk in the grass."),
	"",
}

// BattleSessionHandler runs one trainer's Telnet session on top of a
// gameserver.BattleHandler.
type BattleSessionHandler struct {
	battles  *gameserver.BattleHandler
	commands *command.Registry
	delay    time.Duration
	logger   *zap.Logger
}

// NewBattleSessionHandler creates a session handler. narrationDelay paces
// battle text; zero writes it all at once.
//
// Precondition: battles and logger must be non-nil.
func NewBattleSessionHandler(battles *gameserver.BattleHandler, narrationDelay time.Duration, logger *zap.Logger) *BattleSessionHandler {
	return &BattleSessionHandler{
		battles:  battles,
		commands: command.DefaultRegistry(),
		delay:    narrationDelay,
		logger:   logger,
	}
}

// HandleSession implements telnet.SessionHandler.
//
// Postcondition: The trainer is removed from the game when the session
// ends, abandoning any battle in progress.
func (h *BattleSessionHandler) HandleSession(ctx context.Context, id string, conn *telnet.Conn) error {
	if err := conn.WriteLines(welcomeBanner...); err != nil {
		return err
	}
	name, err := h.askName(conn)
	if err != nil {
		return err
	}
	partner, err := h.askPartner(conn)
	if err != nil {
		return err
	}

	sess, err := h.battles.Join(ctx, id, name, partner.ID)
	if err != nil {
		_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Could not join: %v", err))
		return fmt.Errorf("joining %q: %w", name, err)
	}
	defer func() {
		if err := h.battles.Leave(id); err != nil {
			h.logger.Warn("leaving game", zap.String("session", id), zap.Error(err))
		}
	}()

	if err := conn.WriteLines(
		"",
		telnet.Colorf(telnet.BrightGreen, "%s and %s set out into the tall grass.", name, partner.Name),
		RenderStatus(sess, partner.Name),
		telnet.Colorize(telnet.Dim, "Type 'explore' to look for a wild creature, or 'help' for commands."),
	); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := conn.WritePrompt(h.prompt(id, name)); err != nil {
			return err
		}
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		done, err := h.dispatch(ctx, id, conn, line)
		if err != nil || done {
			return err
		}
	}
}

func (h *BattleSessionHandler) askName(conn *telnet.Conn) (string, error) {
	for {
		if err := conn.WritePrompt(telnet.Colorize(telnet.BrightCyan, "What is your name, trainer? ")); err != nil {
			return "", err
		}
		line, err := conn.ReadLine()
		if err != nil {
			return "", err
		}
		name := strings.TrimSpace(line)
		if problem := nameProblem(name); problem != "" {
			if err := conn.WriteLine(telnet.Colorize(telnet.Red, problem)); err != nil {
				return "", err
			}
			continue
		}
		return name, nil
	}
}

// nameProblem returns why name is unusable, or "".
func nameProblem(name string) string {
	err := gameserver.ValidateTrainerName(name)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, gameserver.ErrEmptyTrainerName):
		return "Every trainer needs a name."
	case errors.Is(err, gameserver.ErrTrainerNameTooLong):
		return fmt.Sprintf("Names are at most %d characters.", gameserver.MaxTrainerNameLen)
	default:
		return "Names may only use letters, digits, '_' and '-'."
	}
}

func (h *BattleSessionHandler) askPartner(conn *telnet.Conn) (*species.Definition, error) {
	starters := h.battles.Catalog().Starters()
	if len(starters) == 0 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "No partners are available."))
		return nil, errors.New("catalog has no starter species")
	}
	if err := conn.Write([]byte(RenderStarters(starters))); err != nil {
		return nil, err
	}
	for {
		if err := conn.WritePrompt(telnet.Colorf(telnet.BrightCyan, "Pick 1-%d: ", len(starters))); err != nil {
			return nil, err
		}
		line, err := conn.ReadLine()
		if err != nil {
			return nil, err
		}
		if s := pickStarter(starters, line); s != nil {
			return s, nil
		}
		if err := conn.WriteLine(telnet.Colorize(telnet.Red, "That isn't one of the choices.")); err != nil {
			return nil, err
		}
	}
}

// pickStarter matches choice against a 1-based number, a species id or a
// species name.
func pickStarter(starters []*species.Definition, choice string) *species.Definition {
	choice = strings.TrimSpace(choice)
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(starters) {
			return starters[n-1]
		}
		return nil
	}
	for _, s := range starters {
		if strings.EqualFold(s.ID, choice) || strings.EqualFold(s.Name, choice) {
			return s
		}
	}
	return nil
}

func (h *BattleSessionHandler) prompt(id, name string) string {
	if h.inBattle(id) {
		return telnet.Colorize(telnet.BrightRed, "[battle]> ")
	}
	return telnet.Colorf(telnet.BrightCyan, "[%s]> ", name)
}

func (h *BattleSessionHandler) inBattle(id string) bool {
	sess, ok := h.battles.Sessions().Get(id)
	return ok && sess.Mode == session.ModeBattle
}

// dispatch runs one line of input. done reports that the trainer quit.
func (h *BattleSessionHandler) dispatch(ctx context.Context, id string, conn *telnet.Conn, line string) (done bool, err error) {
	res := command.Parse(line)
	if res.Command == "" {
		return false, nil
	}
	if idx, ok := command.Slot(res.Command); ok {
		if !h.inBattle(id) {
			return false, conn.WriteLine(telnet.Colorize(telnet.Red, "You're not in a battle."))
		}
		return false, h.battleCall(ctx, id, conn, func(sink combat.Sink) error {
			return h.battles.SelectMove(ctx, id, idx, sink)
		})
	}

	cmd, ok := h.commands.Resolve(res.Command)
	if !ok {
		return false, conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown command %q. Type 'help' for a list.", res.Command))
	}
	inBattle := h.inBattle(id)
	switch {
	case cmd.Category == command.CategoryBattle && !inBattle:
		return false, conn.WriteLine(telnet.Colorize(telnet.Red, "You're not in a battle."))
	case cmd.Category == command.CategoryRoam && inBattle:
		return false, conn.WriteLine(telnet.Colorize(telnet.Red, "Finish the battle first!"))
	}

	switch cmd.Handler {
	case command.HandlerQuit:
		return true, conn.WriteLine(telnet.Colorize(telnet.BrightGreen, "See you next time, trainer."))
	case command.HandlerHelp:
		cats := []string{command.CategoryRoam, command.CategorySystem}
		if inBattle {
			cats = []string{command.CategoryBattle, command.CategorySystem}
		}
		return false, conn.Write([]byte(RenderHelp(h.commands, cats...)))
	case command.HandlerStatus:
		return false, h.status(id, conn)
	case command.HandlerRecord:
		recs, err := h.battles.Records(ctx, id, recordLimit)
		if err != nil {
			return false, h.report(conn, id, err)
		}
		return false, conn.Write([]byte(RenderRecords(recs)))
	case command.HandlerTables:
		return false, conn.Write([]byte(RenderTables(h.battles.Tables())))
	case command.HandlerExplore:
		table := ""
		if len(res.Args) > 0 {
			table = res.Args[0]
		}
		return false, h.explore(ctx, id, conn, table)
	case command.HandlerInput:
		in, err := combat.ParseInput(cmd.Name)
		if err != nil {
			return false, h.report(conn, id, err)
		}
		return false, h.battleCall(ctx, id, conn, func(sink combat.Sink) error {
			return h.battles.Submit(ctx, id, in, sink)
		})
	case command.HandlerFight:
		return false, h.battleCall(ctx, id, conn, func(sink combat.Sink) error {
			return h.battles.SelectAction(ctx, id, combat.ActionFight, sink)
		})
	case command.HandlerRun:
		accepted, err := h.battleStep(ctx, id, conn, func(sink combat.Sink) error {
			return h.battles.SelectAction(ctx, id, combat.ActionRun, sink)
		})
		if err != nil || !accepted {
			return false, err
		}
		return false, conn.WriteLine(telnet.Colorize(telnet.Dim, "There's no running from this one!"))
	case command.HandlerMove:
		if len(res.Args) == 0 {
			return false, conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: move <1-4>"))
		}
		idx, ok := command.Slot(res.Args[0])
		if !ok {
			return false, conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: move <1-4>"))
		}
		return false, h.battleCall(ctx, id, conn, func(sink combat.Sink) error {
			return h.battles.SelectMove(ctx, id, idx, sink)
		})
	}
	return false, fmt.Errorf("command %q has unknown handler %q", cmd.Name, cmd.Handler)
}

func (h *BattleSessionHandler) status(id string, conn *telnet.Conn) error {
	sess, ok := h.battles.Sessions().Get(id)
	if !ok {
		return h.report(conn, id, gameserver.ErrUnknownTrainer)
	}
	partner := sess.Partner
	if def, err := h.battles.Catalog().Species(sess.Partner); err == nil {
		partner = def.Name
	}
	return conn.WriteLine(RenderStatus(sess, partner))
}

func (h *BattleSessionHandler) explore(ctx context.Context, id string, conn *telnet.Conn, table string) error {
	res, err := h.battles.Explore(ctx, id, table)
	if err != nil {
		return h.report(conn, id, err)
	}
	if !res.Encountered {
		return conn.WriteLine(telnet.Colorf(telnet.Dim,
			"You wander %d steps through the grass. Nothing stirs.", res.Steps))
	}
	if err := conn.WriteLine(telnet.Colorize(telnet.BrightYellow, "Something rustles in the grass!")); err != nil {
		return err
	}
	return h.battleCall(ctx, id, conn, func(sink combat.Sink) error {
		return h.battles.Pump(ctx, id, sink)
	})
}

// battleCall runs fn with a sink writing to conn, then redraws whichever
// menu the battle is waiting on.
func (h *BattleSessionHandler) battleCall(ctx context.Context, id string, conn *telnet.Conn, fn func(combat.Sink) error) error {
	_, err := h.battleStep(ctx, id, conn, fn)
	return err
}

// battleStep is battleCall that also reports whether the battle accepted the
// input. A refusal is shown to the trainer and is not an error.
func (h *BattleSessionHandler) battleStep(ctx context.Context, id string, conn *telnet.Conn, fn func(combat.Sink) error) (bool, error) {
	sink := &telnetSink{conn: conn, delay: h.delay}
	if v, err := h.battles.View(id); err == nil {
		sink.view = v
	}
	err := fn(sink)
	if sink.err != nil {
		return false, sink.err
	}
	if err != nil {
		return false, h.report(conn, id, err)
	}

	v, err := h.battles.View(id)
	if err != nil || !v.AwaitingInput {
		return true, nil
	}
	switch v.State {
	case combat.StatePlayerAction:
		return true, conn.WriteLine(RenderActionMenu(v))
	case combat.StatePlayerMove:
		return true, conn.Write([]byte(RenderMoveMenu(v)))
	}
	return true, nil
}

// report tells the trainer why a command was refused. Unexpected errors are
// logged and shown generically.
func (h *BattleSessionHandler) report(conn *telnet.Conn, id string, err error) error {
	msg := userMessage(err)
	if msg == "" {
		h.logger.Warn("command failed", zap.String("session", id), zap.Error(err))
		msg = "Something went wrong. Try again."
	}
	return conn.WriteLine(telnet.Colorize(telnet.Red, msg))
}

func userMessage(err error) string {
	var idxErr *combat.MoveIndexError
	switch {
	case errors.As(err, &idxErr):
		return fmt.Sprintf("Pick a move from 1 to %d.", idxErr.Known)
	case errors.Is(err, combat.ErrNoUsesRemaining):
		return "That move has no uses left!"
	case errors.Is(err, combat.ErrBusy):
		return "Wait for the turn to finish."
	case errors.Is(err, combat.ErrWrongState):
		return "You can't do that right now."
	case errors.Is(err, combat.ErrBattleOver), errors.Is(err, gameserver.ErrNotInBattle):
		return "You're not in a battle."
	case errors.Is(err, gameserver.ErrAlreadyInBattle):
		return "Finish the battle first!"
	case errors.Is(err, gameserver.ErrUnknownTable):
		return "There's no such area. Type 'tables' to list them."
	default:
		return ""
	}
}

// telnetSink writes battle events to a Telnet client, pausing after each
// line of narration.
type telnetSink struct {
	conn  *telnet.Conn
	delay time.Duration
	view  combat.View
	err   error
}

func (s *telnetSink) Deliver(ctx context.Context, ev combat.Event) error {
	var line string
	switch ev.Kind {
	case combat.EventNarration:
		line = narrationColor(ev.Text)
	case combat.EventHP:
		line = RenderHPUpdate(ev, s.view)
	case combat.EventBattleOver:
		if ev.PlayerWon {
			line = telnet.Colorize(telnet.BrightGreen, "You won the battle!")
		} else {
			line = telnet.Colorize(telnet.BrightRed, "You lost the battle...")
		}
	default:
		return nil
	}
	if err := s.conn.WriteLine(line); err != nil {
		s.err = err
		return err
	}
	if ev.Kind == combat.EventNarration && s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return nil
}

func narrationColor(text string) string {
	switch {
	case text == "A critical hit!":
		return telnet.Colorize(telnet.BrightYellow, text)
	case text == "It's super effective!":
		return telnet.Colorize(telnet.BrightGreen, text)
	case text == "It's not very effective!":
		return telnet.Colorize(telnet.Dim, text)
	case strings.HasSuffix(text, " fainted"):
		return telnet.Colorize(telnet.BrightRed, text)
	default:
		return telnet.Colorize(telnet.White, text)
	}
}
