// Package element defines the creature element types and the type
// effectiveness chart consulted by damage resolution.
package element

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Type is one of the 17 element types, or None.
//
// The zero value is None so that an omitted secondary type in YAML stays
// neutral in effectiveness lookups.
type Type int

const (
	None Type = iota
	Normal
	Fire
	Water
	Electric
	Grass
	Ice
	Fighting
	Poison
	Ground
	Flying
	Psychic
	Bug
	Rock
	Ghost
	Dragon
	Dark
	Steel
)

// Count is the number of real element types (None excluded).
const Count = 17

var names = [...]string{
	None:     "none",
	Normal:   "normal",
	Fire:     "fire",
	Water:    "water",
	Electric: "electric",
	Grass:    "grass",
	Ice:      "ice",
	Fighting: "fighting",
	Poison:   "poison",
	Ground:   "ground",
	Flying:   "flying",
	Psychic:  "psychic",
	Bug:      "bug",
	Rock:     "rock",
	Ghost:    "ghost",
	Dragon:   "dragon",
	Dark:     "dark",
	Steel:    "steel",
}

// All returns every real element type in chart order.
//
// Postcondition: len(result) == Count and None is not included.
func All() []Type {
	out := make([]Type, 0, Count)
	for t := Normal; t <= Steel; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is None or one of the 17 element types.
func (t Type) Valid() bool {
	return t >= None && t <= Steel
}

// String returns the lowercase identifier used in content files.
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("element(%d)", int(t))
	}
	return names[t]
}

// Title returns the display name, e.g. "Fire".
func (t Type) Title() string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Title(language.English).String(t.String())
}

// Parse converts a content identifier such as "fire" into a Type.
// Matching is case-insensitive; the empty string parses as None.
//
// Postcondition: Returns a valid Type or a non-nil error.
func Parse(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return None, nil
	}
	for i, n := range names {
		if n == key {
			return Type(i), nil
		}
	}
	return None, fmt.Errorf("element: unknown type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("element: cannot marshal invalid type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalYAML decodes a scalar type name.
func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("element: line %d: type must be a scalar", value.Line)
	}
	return t.UnmarshalText([]byte(value.Value))
}
