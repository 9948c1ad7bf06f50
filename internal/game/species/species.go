// Package species provides creature species definitions loaded from YAML.
package species

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"github.com/cory-johannsen/tallgrass/internal/game/move"
	"gopkg.in/yaml.v3"
)

// MaxKnownMoves is the most moves a combatant can know at once.
const MaxKnownMoves = 4

// BaseStats holds the six base stats of a species.
type BaseStats struct {
	MaxHP     int `yaml:"max_hp"`
	Attack    int `yaml:"attack"`
	Defense   int `yaml:"defense"`
	SpAttack  int `yaml:"sp_attack"`
	SpDefense int `yaml:"sp_defense"`
	Speed     int `yaml:"speed"`
}

// LearnableMove unlocks a move at a level. Move is resolved by the catalog.
type LearnableMove struct {
	Level  int              `yaml:"level"`
	MoveID string           `yaml:"move"`
	Move   *move.Definition `yaml:"-"`
}

// Definition is an immutable species template.
type Definition struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Description   string          `yaml:"description"`
	Starter       bool            `yaml:"starter"`
	PrimaryType   element.Type    `yaml:"primary_type"`
	SecondaryType element.Type    `yaml:"secondary_type"`
	Base          BaseStats       `yaml:"base_stats"`
	Learnset      []LearnableMove `yaml:"learnset"`
}

// Validate checks the species invariants that do not depend on the catalog.
//
// Postcondition: Returns nil iff ID and Name are non-empty, PrimaryType is a
// real element, every base stat is >= 1, and every learnset entry has
// Level >= 1 and a non-empty move id.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("species: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("species %q: name must not be empty", d.ID)
	}
	if d.PrimaryType == element.None || !d.PrimaryType.Valid() {
		return fmt.Errorf("species %q: primary_type must be one of the element types", d.ID)
	}
	if !d.SecondaryType.Valid() {
		return fmt.Errorf("species %q: secondary_type is invalid", d.ID)
	}
	stats := []struct {
		name  string
		value int
	}{
		{"max_hp", d.Base.MaxHP},
		{"attack", d.Base.Attack},
		{"defense", d.Base.Defense},
		{"sp_attack", d.Base.SpAttack},
		{"sp_defense", d.Base.SpDefense},
		{"speed", d.Base.Speed},
	}
	for _, st := range stats {
		if st.value < 1 {
			return fmt.Errorf("species %q: base_stats.%s must be >= 1", d.ID, st.name)
		}
	}
	for i, lm := range d.Learnset {
		if lm.Level < 1 {
			return fmt.Errorf("species %q: learnset[%d].level must be >= 1", d.ID, i)
		}
		if lm.MoveID == "" {
			return fmt.Errorf("species %q: learnset[%d].move must not be empty", d.ID, i)
		}
	}
	return nil
}

// MovesAt returns the moves known at level: the first MaxKnownMoves learnset
// entries whose unlock level is <= level, in learnset order.
//
// Precondition: learnset entries have been resolved (Move != nil).
// Postcondition: len(result) <= MaxKnownMoves.
func (d *Definition) MovesAt(level int) []*move.Definition {
	var out []*move.Definition
	for _, lm := range d.Learnset {
		if len(out) == MaxKnownMoves {
			break
		}
		if lm.Level <= level {
			out = append(out, lm.Move)
		}
	}
	return out
}

// LoadDefinitionFromBytes parses and validates a species from YAML.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing species YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinitions reads all *.yaml files in dir.
//
// Postcondition: Returns all definitions or the first parse/validation error.
func LoadDefinitions(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading species dir %q: %w", dir, err)
	}

	var defs []*Definition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		def, err := LoadDefinitionFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
