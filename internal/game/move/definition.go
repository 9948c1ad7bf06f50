// Package move provides move definitions loaded from content files and the
// per-combatant move instances that track remaining uses.
package move

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cory-johannsen/tallgrass/internal/game/element"
	"gopkg.in/yaml.v3"
)

// Category selects which pair of stats a move is resolved with.
type Category int

const (
	// Physical moves use Attack against Defense.
	Physical Category = iota
	// Special moves use SpAttack against SpDefense.
	Special
)

// String returns "physical" or "special".
func (c Category) String() string {
	if c == Special {
		return "special"
	}
	return "physical"
}

// specialTypes is the static set of element types whose moves are special.
var specialTypes = map[element.Type]bool{
	element.Fire:     true,
	element.Water:    true,
	element.Electric: true,
	element.Grass:    true,
	element.Ice:      true,
	element.Dragon:   true,
}

// CategoryOf returns the category implied by a move's element type.
func CategoryOf(t element.Type) Category {
	if specialTypes[t] {
		return Special
	}
	return Physical
}

// Definition is an immutable move loaded from YAML and shared by every
// combatant that learns it.
type Definition struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Type        element.Type `yaml:"type"`
	Power       int          `yaml:"power"`
	// Accuracy is carried for display only; resolution always hits.
	Accuracy int `yaml:"accuracy"`
	PP       int `yaml:"pp"`
}

// Category returns the move's physical/special category.
func (d *Definition) Category() Category {
	return CategoryOf(d.Type)
}

// Validate checks that the definition satisfies basic invariants.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Type is a real
// element, Power >= 0, 0 <= Accuracy <= 100 and PP >= 1.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("move: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("move %q: name must not be empty", d.ID)
	}
	if d.Type == element.None || !d.Type.Valid() {
		return fmt.Errorf("move %q: type must be one of the element types", d.ID)
	}
	if d.Power < 0 {
		return fmt.Errorf("move %q: power must be >= 0", d.ID)
	}
	if d.Accuracy < 0 || d.Accuracy > 100 {
		return fmt.Errorf("move %q: accuracy must be in [0, 100]", d.ID)
	}
	if d.PP < 1 {
		return fmt.Errorf("move %q: pp must be >= 1", d.ID)
	}
	return nil
}

// LoadDefinitionFromBytes parses and validates a single move from YAML.
// Unknown fields are rejected.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing move YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinitions reads all *.yaml files in dir, sorted by file name.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all definitions or the first parse/validation error.
func LoadDefinitions(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading move dir %q: %w", dir, err)
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
