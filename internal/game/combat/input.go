package combat

import (
	"fmt"
	"strings"
)

// Input is a discrete event from the input source.
type Input int

const (
	InputUp Input = iota
	InputDown
	InputLeft
	InputRight
	InputConfirm
)

var inputNames = map[Input]string{
	InputUp:      "up",
	InputDown:    "down",
	InputLeft:    "left",
	InputRight:   "right",
	InputConfirm: "confirm",
}

// String returns the lowercase input name.
func (i Input) String() string {
	if n, ok := inputNames[i]; ok {
		return n
	}
	return fmt.Sprintf("input(%d)", int(i))
}

// ParseInput maps a name such as "up" or "confirm" to an Input.
func ParseInput(s string) (Input, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for in, n := range inputNames {
		if n == key {
			return in, nil
		}
	}
	return 0, fmt.Errorf("combat: unknown input %q", s)
}

// Action is an entry of the action menu.
type Action int

const (
	ActionFight Action = iota
	ActionRun
)

// actionCount is the number of entries in the action menu.
const actionCount = 2

// String returns "Fight" or "Run".
func (a Action) String() string {
	if a == ActionRun {
		return "Run"
	}
	return "Fight"
}

// moveCursor applies a directional input to a 2-column move grid of n moves.
//
// Postcondition: 0 <= result < n for n >= 1 and 0 <= cur < n.
func moveCursor(cur, n int, in Input) int {
	switch in {
	case InputDown:
		if cur < n-2 {
			cur += 2
		}
	case InputUp:
		if cur > 1 {
			cur -= 2
		}
	case InputLeft:
		if cur > 0 {
			cur--
		}
	case InputRight:
		if cur < n-1 {
			cur++
		}
	}
	return cur
}

// actionCursor applies a directional input to the vertical action menu.
func actionCursor(cur int, in Input) int {
	switch in {
	case InputDown:
		if cur < actionCount-1 {
			cur++
		}
	case InputUp:
		if cur > 0 {
			cur--
		}
	}
	return cur
}
