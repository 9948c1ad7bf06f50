// Package history describes finished-battle records and where they go.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is the outcome of one finished battle. Combat state itself is
// never persisted.
type Record struct {
	ID            uuid.UUID
	Trainer       string
	PlayerSpecies string
	PlayerLevel   int
	EnemySpecies  string
	EnemyLevel    int
	PlayerWon     bool
	Turns         int
	Seed          int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Summary is a trainer's win/loss tally.
type Summary struct {
	Wins   int
	Losses int
}

// Recorder stores battle records.
type Recorder interface {
	// Record stores rec.
	//
	// Precondition: rec.ID is set.
	Record(ctx context.Context, rec Record) error
}

// Store is a Recorder that can also be queried.
type Store interface {
	Recorder
	ListByTrainer(ctx context.Context, trainer string, limit int) ([]Record, error)
	Summary(ctx context.Context, trainer string) (Summary, error)
}

// MemoryStore is an in-process Store used when no database is configured.
// It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends rec.
func (m *MemoryStore) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// ListByTrainer returns up to limit records for trainer, newest first.
// A limit <= 0 returns every record.
func (m *MemoryStore) ListByTrainer(_ context.Context, trainer string, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.records {
		if r.Trainer == trainer {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Summary tallies wins and losses for trainer.
func (m *MemoryStore) Summary(_ context.Context, trainer string) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s Summary
	for _, r := range m.records {
		if r.Trainer != trainer {
			continue
		}
		if r.PlayerWon {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	return s, nil
}
