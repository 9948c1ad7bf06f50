// Package gameserver orchestrates trainer sessions, wild encounters and the
// battles they start, independent of any frontend.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tallgrass/internal/config"
	"github.com/cory-johannsen/tallgrass/internal/game/catalog"
	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/dice"
	"github.com/cory-johannsen/tallgrass/internal/game/encounter"
	"github.com/cory-johannsen/tallgrass/internal/game/history"
	"github.com/cory-johannsen/tallgrass/internal/game/session"
)

// ErrNotInBattle is returned by battle input methods when the trainer is roaming.
var ErrNotInBattle = errors.New("trainer is not in battle")

// ErrAlreadyInBattle is returned when an encounter is started mid-battle.
var ErrAlreadyInBattle = errors.New("trainer is already in battle")

// ErrUnknownTrainer is returned for a uid with no session.
var ErrUnknownTrainer = errors.New("trainer not found")

// ErrUnknownTable is returned for an encounter table id that was not loaded.
var ErrUnknownTable = errors.New("encounter table not found")

// ExploreResult reports one explore command.
type ExploreResult struct {
	// Steps is the number of grass steps walked.
	Steps int
	// Encountered is true when a wild battle started on the last step.
	Encountered bool
	// Species and Level describe the wild combatant when Encountered.
	Species string
	Level   int
}

// activeBattle is a running battle plus what is needed to record it.
// mu serializes every call into battle.
type activeBattle struct {
	mu        sync.Mutex
	battle    *combat.Battle
	seed      int64
	startedAt time.Time
	concluded bool
}

// BattleHandler owns the battle lifecycle for every connected trainer:
// joining, exploring the grass, driving input into the turn engine and
// recording outcomes.
//
// All methods are safe for concurrent use. Calls for one trainer are
// serialized; calls for different trainers run in parallel.
type BattleHandler struct {
	catalog  *catalog.Registry
	tables   *encounter.Registry
	engine   *combat.Engine
	sessions *session.Manager
	store    history.Store
	cfg      config.BattleConfig
	logger   *zap.Logger
	tracer   trace.Tracer

	world   dice.Source
	newSeed func() (int64, error)
	now     func() time.Time

	mu     sync.Mutex
	active map[string]*activeBattle
}

// HandlerOption configures a BattleHandler.
type HandlerOption func(*BattleHandler)

// WithHandlerLogger sets the logger.
func WithHandlerLogger(l *zap.Logger) HandlerOption {
	return func(h *BattleHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithHandlerTracer sets the tracer passed to every battle.
func WithHandlerTracer(t trace.Tracer) HandlerOption {
	return func(h *BattleHandler) {
		if t != nil {
			h.tracer = t
		}
	}
}

// WithWorldSource sets the source used for grass steps.
func WithWorldSource(src dice.Source) HandlerOption {
	return func(h *BattleHandler) {
		if src != nil {
			h.world = src
		}
	}
}

// WithSeedFunc replaces dice.NewSeed for battles when no seed is configured.
func WithSeedFunc(fn func() (int64, error)) HandlerOption {
	return func(h *BattleHandler) {
		if fn != nil {
			h.newSeed = fn
		}
	}
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *BattleHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewBattleHandler creates a BattleHandler.
//
// Precondition: reg, tables, engine and sessions must be non-nil.
// store may be nil (outcomes are not recorded).
func NewBattleHandler(
	reg *catalog.Registry,
	tables *encounter.Registry,
	engine *combat.Engine,
	sessions *session.Manager,
	store history.Store,
	cfg config.BattleConfig,
	opts ...HandlerOption,
) *BattleHandler {
	h := &BattleHandler{
		catalog:  reg,
		tables:   tables,
		engine:   engine,
		sessions: sessions,
		store:    store,
		cfg:      cfg,
		logger:   zap.NewNop(),
		tracer:   noop.NewTracerProvider().Tracer("tallgrass/gameserver"),
		world:    dice.NewCryptoSource(),
		newSeed:  dice.NewSeed,
		now:      time.Now,
		active:   make(map[string]*activeBattle),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Sessions returns the session manager.
func (h *BattleHandler) Sessions() *session.Manager { return h.sessions }

// Catalog returns the species and move registry.
func (h *BattleHandler) Catalog() *catalog.Registry { return h.catalog }

// Tables returns the encounter tables.
func (h *BattleHandler) Tables() *encounter.Registry { return h.tables }

// Join registers a trainer with the given partner species and seeds the
// win/loss tally from stored history.
//
// Precondition: name must pass ValidateTrainerName and partner must be a
// species id in the catalog.
func (h *BattleHandler) Join(ctx context.Context, uid, name, partner string) (session.TrainerSession, error) {
	if err := ValidateTrainerName(name); err != nil {
		return session.TrainerSession{}, err
	}
	if _, err := h.catalog.Species(partner); err != nil {
		return session.TrainerSession{}, err
	}
	sess, err := h.sessions.AddTrainer(uid, name, partner)
	if err != nil {
		return session.TrainerSession{}, err
	}
	if h.store != nil {
		sum, err := h.store.Summary(ctx, name)
		if err != nil {
			h.logger.Warn("loading trainer record", zap.String("trainer", name), zap.Error(err))
		} else if err := h.sessions.SetRecord(uid, sum.Wins, sum.Losses); err == nil {
			sess.Wins, sess.Losses = sum.Wins, sum.Losses
		}
	}
	h.logger.Info("trainer joined",
		zap.String("uid", uid),
		zap.String("trainer", name),
		zap.String("partner", partner),
	)
	return sess, nil
}

// Leave removes the trainer. An unfinished battle is abandoned and not recorded.
func (h *BattleHandler) Leave(uid string) error {
	h.mu.Lock()
	ab, ok := h.active[uid]
	delete(h.active, uid)
	h.mu.Unlock()
	if ok {
		h.engine.End(ab.battle.ID())
		h.logger.Info("battle abandoned",
			zap.String("uid", uid),
			zap.String("battle_id", ab.battle.ID().String()),
		)
	}
	return h.sessions.RemoveTrainer(uid)
}

// StartEncounter starts a wild battle from the named table, or from the
// configured default table when tableID is empty. The caller drains the
// setup narration with Pump.
//
// Postcondition: The trainer is in battle mode and the battle is registered
// with the engine, or an error is returned and nothing changed.
func (h *BattleHandler) StartEncounter(ctx context.Context, uid, tableID string) (*combat.Battle, error) {
	sess, ok := h.sessions.Get(uid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrainer, uid)
	}
	if sess.Mode == session.ModeBattle {
		return nil, ErrAlreadyInBattle
	}
	table, err := h.table(tableID)
	if err != nil {
		return nil, err
	}

	seed := h.cfg.Seed
	if seed == 0 {
		if seed, err = h.newSeed(); err != nil {
			return nil, fmt.Errorf("seeding battle: %w", err)
		}
	}
	src := dice.NewSeededSource(seed)
	roller := dice.NewLoggedRoller(src, h.logger)

	wildDef, wildLevel := table.Pick(roller)
	partnerDef, err := h.catalog.Species(sess.Partner)
	if err != nil {
		return nil, err
	}
	player, err := combat.NewCombatant(partnerDef, h.cfg.PlayerLevel)
	if err != nil {
		return nil, fmt.Errorf("building partner: %w", err)
	}
	enemy, err := combat.NewCombatant(wildDef, wildLevel)
	if err != nil {
		return nil, fmt.Errorf("building wild %s: %w", wildDef.ID, err)
	}

	battle, err := combat.NewBattle(player, enemy, src,
		combat.WithLogger(h.logger.With(zap.String("uid", uid))),
		combat.WithTracer(h.tracer),
	)
	if err != nil {
		return nil, err
	}
	if err := h.engine.Register(battle); err != nil {
		return nil, err
	}
	if err := h.sessions.EnterBattle(uid, battle.ID()); err != nil {
		h.engine.End(battle.ID())
		return nil, err
	}

	h.mu.Lock()
	h.active[uid] = &activeBattle{battle: battle, seed: seed, startedAt: h.now()}
	h.mu.Unlock()

	_, span := h.tracer.Start(ctx, "encounter.start", trace.WithAttributes(
		attribute.String("table", table.ID),
		attribute.String("wild.species", wildDef.ID),
		attribute.Int("wild.level", wildLevel),
	))
	span.End()

	h.logger.Info("encounter started",
		zap.String("uid", uid),
		zap.String("table", table.ID),
		zap.String("battle_id", battle.ID().String()),
		zap.Int64("seed", seed),
		zap.String("wild", wildDef.ID),
		zap.Int("wild_level", wildLevel),
	)
	return battle, nil
}

// Explore walks the trainer through up to battle.max_explore_steps grass
// steps of the table, checking for an encounter on each. The first success
// starts a battle.
func (h *BattleHandler) Explore(ctx context.Context, uid, tableID string) (ExploreResult, error) {
	sess, ok := h.sessions.Get(uid)
	if !ok {
		return ExploreResult{}, fmt.Errorf("%w: %s", ErrUnknownTrainer, uid)
	}
	if sess.Mode == session.ModeBattle {
		return ExploreResult{}, ErrAlreadyInBattle
	}
	table, err := h.table(tableID)
	if err != nil {
		return ExploreResult{}, err
	}

	var res ExploreResult
	for res.Steps < h.cfg.MaxExploreSteps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Steps++
		if !table.Check(h.world) {
			continue
		}
		b, err := h.StartEncounter(ctx, uid, table.ID)
		if err != nil {
			return res, err
		}
		res.Encountered = true
		res.Species = b.Enemy().Species.ID
		res.Level = b.Enemy().Level
		break
	}
	return res, nil
}

// Pump delivers the trainer's pending battle events to sink. When the
// outcome event is delivered the battle is ended, recorded and the trainer
// returns to free roam.
func (h *BattleHandler) Pump(ctx context.Context, uid string, sink combat.Sink) error {
	return h.withBattle(ctx, uid, sink, nil)
}

// Submit forwards one input event to the trainer's battle, then pumps.
func (h *BattleHandler) Submit(ctx context.Context, uid string, in combat.Input, sink combat.Sink) error {
	return h.withBattle(ctx, uid, sink, func(b *combat.Battle) error {
		return b.Submit(ctx, in)
	})
}

// SelectAction chooses Fight or Run, then pumps.
func (h *BattleHandler) SelectAction(ctx context.Context, uid string, a combat.Action, sink combat.Sink) error {
	return h.withBattle(ctx, uid, sink, func(b *combat.Battle) error {
		return b.SelectAction(ctx, a)
	})
}

// SelectMove uses the move at index, opening the move menu first if the
// trainer is still at the action menu, then pumps.
func (h *BattleHandler) SelectMove(ctx context.Context, uid string, index int, sink combat.Sink) error {
	return h.withBattle(ctx, uid, sink, func(b *combat.Battle) error {
		if b.State() == combat.StatePlayerAction {
			if err := b.SelectAction(ctx, combat.ActionFight); err != nil {
				return err
			}
		}
		return b.SelectMove(ctx, index)
	})
}

// View returns a snapshot of the trainer's battle.
func (h *BattleHandler) View(uid string) (combat.View, error) {
	ab, err := h.lookup(uid)
	if err != nil {
		return combat.View{}, err
	}
	ab.mu.Lock()
	defer ab.mu.Unlock()
	return ab.battle.View(), nil
}

// Records returns the trainer's most recent battles, newest first.
func (h *BattleHandler) Records(ctx context.Context, uid string, limit int) ([]history.Record, error) {
	sess, ok := h.sessions.Get(uid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrainer, uid)
	}
	if h.store == nil {
		return nil, nil
	}
	return h.store.ListByTrainer(ctx, sess.Name, limit)
}

func (h *BattleHandler) table(id string) (*encounter.Table, error) {
	if id == "" {
		id = h.cfg.EncounterTable
	}
	t, ok := h.tables.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, id)
	}
	return t, nil
}

func (h *BattleHandler) lookup(uid string) (*activeBattle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ab, ok := h.active[uid]
	if !ok {
		return nil, ErrNotInBattle
	}
	return ab, nil
}

// withBattle runs fn against the trainer's battle and then pumps it.
func (h *BattleHandler) withBattle(ctx context.Context, uid string, sink combat.Sink, fn func(*combat.Battle) error) error {
	ab, err := h.lookup(uid)
	if err != nil {
		return err
	}
	ab.mu.Lock()
	defer ab.mu.Unlock()
	if ab.concluded {
		return combat.ErrBattleOver
	}
	if fn != nil {
		if err := fn(ab.battle); err != nil {
			return err
		}
	}

	outcome := false
	watch := combat.SinkFunc(func(ctx context.Context, ev combat.Event) error {
		if err := sink.Deliver(ctx, ev); err != nil {
			return err
		}
		if ev.Kind == combat.EventBattleOver {
			outcome = true
		}
		return nil
	})
	if err := ab.battle.Pump(ctx, watch); err != nil {
		return err
	}
	if outcome {
		h.conclude(ctx, uid, ab)
	}
	return nil
}

// conclude ends a finished battle. Called with ab.mu held.
func (h *BattleHandler) conclude(ctx context.Context, uid string, ab *activeBattle) {
	ab.concluded = true
	b := ab.battle
	h.engine.End(b.ID())

	h.mu.Lock()
	if h.active[uid] == ab {
		delete(h.active, uid)
	}
	h.mu.Unlock()

	sess, _ := h.sessions.Get(uid)
	if err := h.sessions.LeaveBattle(uid, b.PlayerWon()); err != nil {
		h.logger.Warn("leaving battle", zap.String("uid", uid), zap.Error(err))
	}

	if h.store == nil {
		return
	}
	rec := history.Record{
		ID:            uuid.New(),
		Trainer:       sess.Name,
		PlayerSpecies: b.Player().Species.ID,
		PlayerLevel:   b.Player().Level,
		EnemySpecies:  b.Enemy().Species.ID,
		EnemyLevel:    b.Enemy().Level,
		PlayerWon:     b.PlayerWon(),
		Turns:         b.Turns(),
		Seed:          ab.seed,
		StartedAt:     ab.startedAt,
		FinishedAt:    h.now(),
	}
	if err := h.store.Record(ctx, rec); err != nil {
		h.logger.Error("recording battle",
			zap.String("battle_id", b.ID().String()),
			zap.Error(err),
		)
	}
}
