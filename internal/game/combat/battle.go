package combat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tallgrass/internal/game/dice"
	"github.com/cory-johannsen/tallgrass/internal/game/move"
)

// State is a turn engine state.
type State string

const (
	StateStart        State = "start"
	StatePlayerAction State = "player_action"
	StatePlayerMove   State = "player_move"
	StateBusy         State = "busy"
	StateEnemyMove    State = "enemy_move"
	StateBattleOver   State = "battle_over"
)

// state machine event names
const (
	evBegin      = "begin"
	evFight      = "fight"
	evConfirm    = "confirm"
	evEnemyTurn  = "enemy_turn"
	evPlayerTurn = "player_turn"
	evPlayerWins = "player_wins"
	evEnemyWins  = "enemy_wins"
	evRestart    = "restart"
)

func battleEvents() fsm.Events {
	return fsm.Events{
		{Name: evBegin, Src: []string{string(StateStart)}, Dst: string(StatePlayerAction)},
		{Name: evFight, Src: []string{string(StatePlayerAction)}, Dst: string(StatePlayerMove)},
		{Name: evConfirm, Src: []string{string(StatePlayerMove)}, Dst: string(StateBusy)},
		{Name: evEnemyTurn, Src: []string{string(StateBusy)}, Dst: string(StateEnemyMove)},
		{Name: evPlayerTurn, Src: []string{string(StateEnemyMove)}, Dst: string(StatePlayerAction)},
		{Name: evPlayerWins, Src: []string{string(StateBusy)}, Dst: string(StateBattleOver)},
		{Name: evEnemyWins, Src: []string{string(StateEnemyMove)}, Dst: string(StateBattleOver)},
		{Name: evRestart, Src: []string{string(StateBattleOver)}, Dst: string(StateStart)},
	}
}

// step is one uninterruptible unit of turn resolution.
type step func(ctx context.Context) error

// Battle is the turn engine for one player-versus-wild battle.
//
// Resolution is split into pending steps. Advance runs one step, Pump runs
// steps until the battle waits for input or is over. Input is rejected with
// ErrBusy while any step is pending, so at most one turn is ever in flight.
//
// A Battle is not safe for concurrent use; its owning session serializes
// calls.
type Battle struct {
	id      uuid.UUID
	player  *Combatant
	enemy   *Combatant
	src     dice.Source
	machine *fsm.FSM
	resolve Resolver
	logger  *zap.Logger
	tracer  trace.Tracer

	pending []step
	outbox  []Event

	actionCursor int
	moveCursor   int
	turns        int
	over         bool
	playerWon    bool
}

// Option configures a Battle.
type Option func(*Battle)

// WithLogger sets the battle logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Battle) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTracer sets the tracer used for battle spans.
func WithTracer(t trace.Tracer) Option {
	return func(b *Battle) {
		if t != nil {
			b.tracer = t
		}
	}
}

// WithResolver replaces ResolveAttack.
func WithResolver(r Resolver) Option {
	return func(b *Battle) {
		if r != nil {
			b.resolve = r
		}
	}
}

// WithID sets the battle id instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(b *Battle) { b.id = id }
}

// NewBattle creates a battle in the start state with its setup step pending.
//
// Precondition: src must be non-nil.
// Postcondition: Returns ErrNoMoves if either combatant knows no moves.
func NewBattle(player, enemy *Combatant, src dice.Source, opts ...Option) (*Battle, error) {
	if err := checkCombatants(player, enemy); err != nil {
		return nil, err
	}
	b := &Battle{
		id:      uuid.New(),
		player:  player,
		enemy:   enemy,
		src:     src,
		resolve: ResolveAttack,
		logger:  zap.NewNop(),
		tracer:  noop.NewTracerProvider().Tracer("tallgrass/combat"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.machine = fsm.NewFSM(string(StateStart), battleEvents(), fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			b.logger.Debug("battle state",
				zap.Stringer("battle_id", b.id),
				zap.String("from", e.Src),
				zap.String("to", e.Dst),
			)
		},
	})
	b.pending = []step{b.setup}
	return b, nil
}

func checkCombatants(player, enemy *Combatant) error {
	if player == nil || enemy == nil {
		return fmt.Errorf("combat: both combatants are required")
	}
	if len(player.Moves) == 0 {
		return fmt.Errorf("player %s: %w", player.Name(), ErrNoMoves)
	}
	if len(enemy.Moves) == 0 {
		return fmt.Errorf("enemy %s: %w", enemy.Name(), ErrNoMoves)
	}
	return nil
}

// ID returns the battle id.
func (b *Battle) ID() uuid.UUID { return b.id }

// State returns the current state.
func (b *Battle) State() State { return State(b.machine.Current()) }

// Player returns the player's combatant.
func (b *Battle) Player() *Combatant { return b.player }

// Enemy returns the wild combatant.
func (b *Battle) Enemy() *Combatant { return b.enemy }

// Turns returns the number of player moves executed.
func (b *Battle) Turns() int { return b.turns }

// Over reports whether the battle has ended.
func (b *Battle) Over() bool { return b.over }

// PlayerWon reports the outcome. Meaningful only when Over is true.
func (b *Battle) PlayerWon() bool { return b.playerWon }

// ActionCursor returns the highlighted action index.
func (b *Battle) ActionCursor() int { return b.actionCursor }

// MoveCursor returns the highlighted move index.
func (b *Battle) MoveCursor() int { return b.moveCursor }

// Pending reports whether resolution steps are waiting to run.
func (b *Battle) Pending() bool { return len(b.pending) > 0 }

// AwaitingInput reports whether the battle is blocked on player input.
func (b *Battle) AwaitingInput() bool {
	if len(b.pending) > 0 {
		return false
	}
	s := b.State()
	return s == StatePlayerAction || s == StatePlayerMove
}

// Advance runs exactly one pending step and returns every event produced
// since the last call, including events queued by input.
//
// Postcondition: Returns (nil, nil) when nothing is pending or queued.
func (b *Battle) Advance(ctx context.Context) ([]Event, error) {
	if err := b.runStep(ctx); err != nil {
		return nil, err
	}
	out := b.outbox
	b.outbox = nil
	return out, nil
}

// Pump delivers queued events and runs pending steps until the battle waits
// for input or is over. Each event is acknowledged by sink before the next
// is delivered. If sink fails, pumping stops and the failed event stays
// queued for the next Pump.
func (b *Battle) Pump(ctx context.Context, sink Sink) error {
	for {
		for len(b.outbox) > 0 {
			if err := sink.Deliver(ctx, b.outbox[0]); err != nil {
				return err
			}
			b.outbox = b.outbox[1:]
		}
		if len(b.pending) == 0 {
			return nil
		}
		if err := b.runStep(ctx); err != nil {
			return err
		}
	}
}

func (b *Battle) runStep(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	next := b.pending[0]
	b.pending = b.pending[1:]
	return next(ctx)
}

func (b *Battle) emit(evs ...Event) {
	b.outbox = append(b.outbox, evs...)
}

func (b *Battle) transition(ctx context.Context, name string) error {
	if err := b.machine.Event(ctx, name); err != nil {
		return fmt.Errorf("combat: transition %q from %s: %w", name, b.State(), err)
	}
	b.emit(Event{Kind: EventState, State: b.State()})
	return nil
}

func (b *Battle) acceptInput() error {
	if b.over {
		return ErrBattleOver
	}
	if !b.AwaitingInput() {
		return ErrBusy
	}
	return nil
}

// Submit applies one input event. Directional input moves the cursor of the
// current menu; Confirm selects the highlighted entry.
//
// Postcondition: Returns ErrBattleOver after the battle ended and ErrBusy
// while steps are pending or no menu is open.
func (b *Battle) Submit(ctx context.Context, in Input) error {
	if err := b.acceptInput(); err != nil {
		return err
	}
	switch b.State() {
	case StatePlayerAction:
		if in == InputConfirm {
			return b.SelectAction(ctx, Action(b.actionCursor))
		}
		b.actionCursor = actionCursor(b.actionCursor, in)
	case StatePlayerMove:
		if in == InputConfirm {
			return b.SelectMove(ctx, b.moveCursor)
		}
		b.moveCursor = moveCursor(b.moveCursor, len(b.player.Moves), in)
	}
	return nil
}

// SelectAction chooses an entry from the action menu. Fight opens the move
// menu; Run does nothing.
func (b *Battle) SelectAction(ctx context.Context, a Action) error {
	if err := b.acceptInput(); err != nil {
		return err
	}
	if b.State() != StatePlayerAction {
		return ErrWrongState
	}
	switch a {
	case ActionFight:
		b.actionCursor = int(ActionFight)
		if b.moveCursor >= len(b.player.Moves) {
			b.moveCursor = 0
		}
		return b.transition(ctx, evFight)
	case ActionRun:
		b.actionCursor = int(ActionRun)
		return nil
	default:
		return fmt.Errorf("combat: unknown action %d", int(a))
	}
}

// SelectMove commits the player's move for this turn. From the action menu
// it implies Fight.
//
// Postcondition: Returns *MoveIndexError when index is outside the known
// moves and ErrNoUsesRemaining when the move is exhausted while another
// move still has uses; otherwise the battle is busy with the player's turn
// pending.
func (b *Battle) SelectMove(ctx context.Context, index int) error {
	if err := b.acceptInput(); err != nil {
		return err
	}
	n := len(b.player.Moves)
	if index < 0 || index >= n {
		return &MoveIndexError{Index: index, Known: n}
	}
	if !b.player.Moves[index].CanUse() && len(b.player.UsableMoves()) > 0 {
		return fmt.Errorf("%s: %w", b.player.Moves[index].Def.Name, ErrNoUsesRemaining)
	}
	if b.State() == StatePlayerAction {
		if err := b.SelectAction(ctx, ActionFight); err != nil {
			return err
		}
	}
	b.moveCursor = index
	if err := b.transition(ctx, evConfirm); err != nil {
		return err
	}
	b.pending = append(b.pending, b.playerTurn)
	return nil
}

// Restart begins a new battle with fresh combatants. It is the only way out
// of the battle_over state.
func (b *Battle) Restart(ctx context.Context, player, enemy *Combatant) error {
	if !b.over {
		return ErrWrongState
	}
	if err := checkCombatants(player, enemy); err != nil {
		return err
	}
	if err := b.transition(ctx, evRestart); err != nil {
		return err
	}
	b.player, b.enemy = player, enemy
	b.actionCursor, b.moveCursor, b.turns = 0, 0, 0
	b.over, b.playerWon = false, false
	b.pending = []step{b.setup}
	return nil
}

func (b *Battle) setup(ctx context.Context) error {
	_, span := b.tracer.Start(ctx, "battle.start", trace.WithAttributes(
		attribute.String("battle.id", b.id.String()),
		attribute.String("player.species", b.player.Species.ID),
		attribute.Int("player.level", b.player.Level),
		attribute.String("enemy.species", b.enemy.Species.ID),
		attribute.Int("enemy.level", b.enemy.Level),
	))
	defer span.End()

	b.logger.Info("battle started",
		zap.Stringer("battle_id", b.id),
		zap.String("player", b.player.Species.ID),
		zap.Int("player_level", b.player.Level),
		zap.String("enemy", b.enemy.Species.ID),
		zap.Int("enemy_level", b.enemy.Level),
	)
	b.emit(hpEvent(SidePlayer, b.player), hpEvent(SideEnemy, b.enemy))
	b.emit(narration("A wild %s appeared.", b.enemy.Name()))
	b.pending = append(b.pending, b.promptAction(evBegin))
	return nil
}

func (b *Battle) promptAction(event string) step {
	return func(ctx context.Context) error {
		if err := b.transition(ctx, event); err != nil {
			return err
		}
		b.emit(narration("Choose an action"))
		return nil
	}
}

func (b *Battle) playerTurn(ctx context.Context) error {
	b.turns++
	out := b.attack(ctx, SidePlayer, b.player.Moves[b.moveCursor])
	if out.Fainted {
		b.emit(narration("%s fainted", b.enemy.Name()))
		return b.finish(ctx, evPlayerWins, true)
	}
	if err := b.transition(ctx, evEnemyTurn); err != nil {
		return err
	}
	b.pending = append(b.pending, b.enemyTurn)
	return nil
}

func (b *Battle) enemyTurn(ctx context.Context) error {
	out := b.attack(ctx, SideEnemy, b.enemyMove())
	if out.Fainted {
		b.emit(narration("%s fainted", b.player.Name()))
		return b.finish(ctx, evEnemyWins, false)
	}
	b.pending = append(b.pending, b.promptAction(evPlayerTurn))
	return nil
}

// enemyMove picks uniformly among moves with uses remaining, or among all
// known moves once every move is exhausted.
func (b *Battle) enemyMove() *move.Instance {
	usable := b.enemy.UsableMoves()
	if len(usable) == 0 {
		return b.enemy.Moves[b.src.Intn(len(b.enemy.Moves))]
	}
	return b.enemy.Moves[usable[b.src.Intn(len(usable))]]
}

func (b *Battle) attack(ctx context.Context, side Side, mv *move.Instance) DamageOutcome {
	attacker, defender, defSide := b.player, b.enemy, SideEnemy
	if side == SideEnemy {
		attacker, defender, defSide = b.enemy, b.player, SidePlayer
	}

	_, span := b.tracer.Start(ctx, "battle.attack", trace.WithAttributes(
		attribute.String("battle.id", b.id.String()),
		attribute.String("attacker.side", side.String()),
		attribute.String("move", mv.Def.ID),
	))
	defer span.End()

	mv.Use()
	b.emit(narration("%s used %s", attacker.Name(), mv.Def.Name))

	out := b.resolve(attacker, defender, mv, b.src)

	b.emit(hpEvent(defSide, defender))
	if out.IsCritical() {
		b.emit(narration("A critical hit!"))
	}
	if out.SuperEffective() {
		b.emit(narration("It's super effective!"))
	} else {
		b.emit(narration("It's not very effective!"))
	}

	span.SetAttributes(
		attribute.Int("damage", out.Damage),
		attribute.Float64("effectiveness", out.Effectiveness),
		attribute.Bool("critical", out.IsCritical()),
		attribute.Bool("fainted", out.Fainted),
	)
	b.logger.Debug("attack resolved",
		zap.Stringer("battle_id", b.id),
		zap.String("attacker", attacker.Species.ID),
		zap.String("defender", defender.Species.ID),
		zap.String("move", mv.Def.ID),
		zap.Int("damage", out.Damage),
		zap.Bool("critical", out.IsCritical()),
		zap.Float64("effectiveness", out.Effectiveness),
		zap.Bool("fainted", out.Fainted),
		zap.Int("uses_remaining", mv.UsesRemaining),
	)
	return out
}

func (b *Battle) finish(ctx context.Context, event string, playerWon bool) error {
	_, span := b.tracer.Start(ctx, "battle.finish", trace.WithAttributes(
		attribute.String("battle.id", b.id.String()),
		attribute.Bool("player_won", playerWon),
		attribute.Int("turns", b.turns),
	))
	defer span.End()

	if err := b.transition(ctx, event); err != nil {
		return err
	}
	b.over = true
	b.playerWon = playerWon
	b.pending = nil
	b.emit(Event{Kind: EventBattleOver, PlayerWon: playerWon})
	b.logger.Info("battle finished",
		zap.Stringer("battle_id", b.id),
		zap.Bool("player_won", playerWon),
		zap.Int("turns", b.turns),
	)
	return nil
}
