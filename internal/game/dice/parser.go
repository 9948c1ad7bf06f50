package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse limits. Rolling allocates one slot per die.
const (
	MaxDice  = 100
	MaxSides = 1000
)

// Expression is a parsed "NdS+M" dice expression.
//
// Invariant: 1 <= Count <= MaxDice and 1 <= Sides <= MaxSides after a
// successful Parse.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// Min returns the smallest total the expression can roll.
func (e Expression) Min() int { return e.Count + e.Modifier }

// Max returns the largest total the expression can roll.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }

// Parse parses expressions of the forms "7", "d6", "2d6", "1d4+2" and "3d8-1".
// A bare integer parses as a fixed value (Count 1, Sides 1).
//
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	s := strings.ToLower(raw)

	dIdx := strings.IndexByte(s, 'd')
	if dIdx < 0 {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid expression %q: %w", raw, err)
		}
		return Expression{Raw: raw, Count: 1, Sides: 1, Modifier: n - 1}, nil
	}

	count := 1
	if dIdx > 0 {
		c, err := strconv.Atoi(s[:dIdx])
		if err != nil || c < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q", raw)
		}
		if c > MaxDice {
			return Expression{}, fmt.Errorf("dice: die count in %q exceeds %d", raw, MaxDice)
		}
		count = c
	}

	rest := s[dIdx+1:]
	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil || sides < 1 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q", raw)
	}
	if sides > MaxSides {
		return Expression{}, fmt.Errorf("dice: die sides in %q exceed %d", raw, MaxSides)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
