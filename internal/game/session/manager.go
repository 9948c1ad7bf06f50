// Package session tracks connected trainers and whether each is roaming the
// tall grass or locked in a battle.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Mode is what a trainer's input currently drives.
type Mode int

const (
	// ModeFreeRoam routes input to exploration.
	ModeFreeRoam Mode = iota
	// ModeBattle routes input to the active battle.
	ModeBattle
)

// String returns "free_roam" or "battle".
func (m Mode) String() string {
	if m == ModeBattle {
		return "battle"
	}
	return "free_roam"
}

// TrainerSession is the state of one connected trainer.
type TrainerSession struct {
	// UID uniquely identifies the connection.
	UID string
	// Name is the trainer's display name; history is keyed by it.
	Name string
	// Partner is the species id the trainer battles with.
	Partner string
	Mode    Mode
	// BattleID is the active battle; uuid.Nil in free roam.
	BattleID uuid.UUID
	Wins     int
	Losses   int
}

// Manager tracks all trainer sessions.
// All methods are safe for concurrent use; callers receive copies.
type Manager struct {
	mu       sync.RWMutex
	trainers map[string]*TrainerSession
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{trainers: make(map[string]*TrainerSession)}
}

// AddTrainer registers a trainer in free roam.
//
// Precondition: uid, name and partner must be non-empty.
// Postcondition: Returns the created session, or an error if uid is taken.
func (m *Manager) AddTrainer(uid, name, partner string) (TrainerSession, error) {
	if uid == "" || name == "" || partner == "" {
		return TrainerSession{}, fmt.Errorf("session: uid, name and partner must be non-empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.trainers[uid]; exists {
		return TrainerSession{}, fmt.Errorf("trainer %q already connected", uid)
	}
	sess := &TrainerSession{UID: uid, Name: name, Partner: partner, Mode: ModeFreeRoam}
	m.trainers[uid] = sess
	return *sess, nil
}

// SetRecord seeds the win/loss tally, e.g. from stored history.
func (m *Manager) SetRecord(uid string, wins, losses int) error {
	return m.update(uid, func(s *TrainerSession) error {
		s.Wins, s.Losses = wins, losses
		return nil
	})
}

// RemoveTrainer removes a session.
//
// Postcondition: Returns an error if uid is not found.
func (m *Manager) RemoveTrainer(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.trainers[uid]; !exists {
		return fmt.Errorf("trainer %q not found", uid)
	}
	delete(m.trainers, uid)
	return nil
}

// Get returns a copy of the session for uid.
func (m *Manager) Get(uid string) (TrainerSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.trainers[uid]
	if !ok {
		return TrainerSession{}, false
	}
	return *s, true
}

// EnterBattle switches the trainer to battle mode.
//
// Postcondition: Returns an error if uid is unknown or already battling.
func (m *Manager) EnterBattle(uid string, battleID uuid.UUID) error {
	return m.update(uid, func(s *TrainerSession) error {
		if s.Mode == ModeBattle {
			return fmt.Errorf("trainer %q is already in battle %s", uid, s.BattleID)
		}
		s.Mode = ModeBattle
		s.BattleID = battleID
		return nil
	})
}

// LeaveBattle returns the trainer to free roam and tallies the outcome.
//
// Postcondition: Returns an error if uid is unknown or not battling.
func (m *Manager) LeaveBattle(uid string, playerWon bool) error {
	return m.update(uid, func(s *TrainerSession) error {
		if s.Mode != ModeBattle {
			return fmt.Errorf("trainer %q is not in battle", uid)
		}
		s.Mode = ModeFreeRoam
		s.BattleID = uuid.Nil
		if playerWon {
			s.Wins++
		} else {
			s.Losses++
		}
		return nil
	})
}

// Trainers returns copies of every session sorted by name.
func (m *Manager) Trainers() []TrainerSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TrainerSession, 0, len(m.trainers))
	for _, s := range m.trainers {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of connected trainers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trainers)
}

func (m *Manager) update(uid string, fn func(*TrainerSession) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.trainers[uid]
	if !ok {
		return fmt.Errorf("trainer %q not found", uid)
	}
	return fn(s)
}
