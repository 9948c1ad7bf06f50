package combat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Engine tracks every active Battle, keyed by battle id.
// All methods are safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	battles map[uuid.UUID]*Battle
}

// NewEngine creates an empty Engine.
func NewEngine() *Engine {
	return &Engine{battles: make(map[uuid.UUID]*Battle)}
}

// Register adds b to the engine.
//
// Precondition: b must not be nil.
// Postcondition: Returns an error if a battle with the same id is active.
func (e *Engine) Register(b *Battle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.battles[b.ID()]; exists {
		return fmt.Errorf("combat: battle %s already registered", b.ID())
	}
	e.battles[b.ID()] = b
	return nil
}

// Get returns the active battle with id, or ErrBattleNotFound.
func (e *Engine) Get(id uuid.UUID) (*Battle, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.battles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	return b, nil
}

// End removes the battle with id. Ending an unknown id is a no-op.
func (e *Engine) End(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.battles, id)
}

// Count returns the number of active battles.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.battles)
}
