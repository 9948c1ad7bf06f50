// Package catalog is the read-only provider of move and species definitions.
//
// A Registry is populated once at startup and never mutated afterwards, so
// it is safe to share between battles without locking.
package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cory-johannsen/tallgrass/internal/game/move"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
)

var (
	// ErrUnknownMove is returned when a move id is not in the registry.
	ErrUnknownMove = errors.New("catalog: unknown move")
	// ErrUnknownSpecies is returned when a species id is not in the registry.
	ErrUnknownSpecies = errors.New("catalog: unknown species")
)

// Registry holds every move and species keyed by id.
type Registry struct {
	moves   map[string]*move.Definition
	species map[string]*species.Definition
}

// New builds a Registry from definitions, resolving every learnset entry to
// its move definition.
//
// Postcondition: Returns a Registry in which every species' learnset entries
// have a non-nil Move, or an error wrapping ErrUnknownMove, or an error on a
// duplicate id.
func New(moves []*move.Definition, specs []*species.Definition) (*Registry, error) {
	r := &Registry{
		moves:   make(map[string]*move.Definition, len(moves)),
		species: make(map[string]*species.Definition, len(specs)),
	}
	for _, m := range moves {
		if _, dup := r.moves[m.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate move id %q", m.ID)
		}
		r.moves[m.ID] = m
	}
	for _, s := range specs {
		if _, dup := r.species[s.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate species id %q", s.ID)
		}
		for i := range s.Learnset {
			m, ok := r.moves[s.Learnset[i].MoveID]
			if !ok {
				return nil, fmt.Errorf("species %q learnset[%d]: %w %q", s.ID, i, ErrUnknownMove, s.Learnset[i].MoveID)
			}
			s.Learnset[i].Move = m
		}
		r.species[s.ID] = s
	}
	return r, nil
}

// Load reads moves from <root>/moves and species from <root>/species.
func Load(root string) (*Registry, error) {
	return LoadDirs(filepath.Join(root, "moves"), filepath.Join(root, "species"))
}

// LoadDirs reads moves and species from explicit directories.
func LoadDirs(movesDir, speciesDir string) (*Registry, error) {
	moves, err := move.LoadDefinitions(movesDir)
	if err != nil {
		return nil, fmt.Errorf("loading moves: %w", err)
	}
	specs, err := species.LoadDefinitions(speciesDir)
	if err != nil {
		return nil, fmt.Errorf("loading species: %w", err)
	}
	return New(moves, specs)
}

// Move returns the move with id.
func (r *Registry) Move(id string) (*move.Definition, error) {
	m, ok := r.moves[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMove, id)
	}
	return m, nil
}

// Species returns the species with id.
func (r *Registry) Species(id string) (*species.Definition, error) {
	s, ok := r.species[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSpecies, id)
	}
	return s, nil
}

// AllSpecies returns every species sorted by id.
func (r *Registry) AllSpecies() []*species.Definition {
	out := make([]*species.Definition, 0, len(r.species))
	for _, s := range r.species {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Starters returns the species flagged as starters, sorted by id.
func (r *Registry) Starters() []*species.Definition {
	var out []*species.Definition
	for _, s := range r.AllSpecies() {
		if s.Starter {
			out = append(out, s)
		}
	}
	return out
}

// MoveCount returns the number of registered moves.
func (r *Registry) MoveCount() int { return len(r.moves) }
