// Package encounter provides wild encounter tables: how often a grass step
// triggers a battle and which species, at which level, appears.
package encounter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tallgrass/internal/game/catalog"
	"github.com/cory-johannsen/tallgrass/internal/game/dice"
	"github.com/cory-johannsen/tallgrass/internal/game/species"
)

const (
	// DefaultRate is the encounter percentage applied when rate is omitted.
	DefaultRate = 10
	minLevel    = 1
	maxLevel    = 100
)

// Entry is one weighted species in a table.
type Entry struct {
	Species string `yaml:"species"`
	Level   string `yaml:"level"`
	Weight  int    `yaml:"weight"`

	def   *species.Definition
	level dice.Expression
}

// Table is a set of weighted wild species for one area.
type Table struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	Rate    int     `yaml:"rate"`
	Entries []Entry `yaml:"entries"`

	totalWeight int
}

// Validate checks the table and binds every entry to its species.
//
// Postcondition: Returns nil iff ID is non-empty, 1 <= Rate <= 100, there is
// at least one entry, every weight is >= 1, every level parses as a dice
// expression and every species exists in reg.
func (t *Table) Validate(reg *catalog.Registry) error {
	if t.ID == "" {
		return fmt.Errorf("encounter table: id must not be empty")
	}
	if t.Rate == 0 {
		t.Rate = DefaultRate
	}
	if t.Rate < 1 || t.Rate > 100 {
		return fmt.Errorf("encounter table %q: rate must be in [1, 100]", t.ID)
	}
	if len(t.Entries) == 0 {
		return fmt.Errorf("encounter table %q: entries must not be empty", t.ID)
	}
	t.totalWeight = 0
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.Weight < 1 {
			return fmt.Errorf("encounter table %q: entries[%d].weight must be >= 1", t.ID, i)
		}
		expr, err := dice.Parse(e.Level)
		if err != nil {
			return fmt.Errorf("encounter table %q: entries[%d].level: %w", t.ID, i, err)
		}
		def, err := reg.Species(e.Species)
		if err != nil {
			return fmt.Errorf("encounter table %q: entries[%d]: %w", t.ID, i, err)
		}
		e.level = expr
		e.def = def
		t.totalWeight += e.Weight
	}
	return nil
}

// Check rolls one grass step and reports whether a wild combatant appears.
//
// Postcondition: Returns true iff src.Intn(100)+1 <= Rate.
func (t *Table) Check(src dice.Source) bool {
	return src.Intn(100)+1 <= t.Rate
}

// Pick chooses a species by weight and rolls its level, clamped to [1, 100].
//
// Precondition: t has passed Validate.
func (t *Table) Pick(roller *dice.Roller) (*species.Definition, int) {
	n := roller.Source().Intn(t.totalWeight)
	chosen := &t.Entries[len(t.Entries)-1]
	for i := range t.Entries {
		if n < t.Entries[i].Weight {
			chosen = &t.Entries[i]
			break
		}
		n -= t.Entries[i].Weight
	}
	level := roller.Roll(chosen.level).Total()
	return chosen.def, min(max(level, minLevel), maxLevel)
}

// Registry holds validated encounter tables keyed by id.
type Registry struct {
	tables map[string]*Table
}

// LoadTableFromBytes parses a single table. Unknown fields are rejected.
func LoadTableFromBytes(data []byte, reg *catalog.Registry) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing encounter YAML: %w", err)
	}
	if err := t.Validate(reg); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadDirectory reads every *.yaml table in dir, validating against reg.
func LoadDirectory(dir string, reg *catalog.Registry) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading encounter dir %q: %w", dir, err)
	}
	r := &Registry{tables: make(map[string]*Table)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		t, err := LoadTableFromBytes(data, reg)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := r.tables[t.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate encounter table id %q", path, t.ID)
		}
		r.tables[t.ID] = t
	}
	return r, nil
}

// Get returns the table with id.
func (r *Registry) Get(id string) (*Table, bool) {
	t, ok := r.tables[id]
	return t, ok
}

// IDs returns every table id, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
