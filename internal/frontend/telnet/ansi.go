// Package telnet serves the battle simulator over Telnet with ANSI styling.
package telnet

import (
	"fmt"
	"regexp"
)

// ANSI SGR sequences used by the text frontend.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Magenta = "\033[35m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"

	// ClearScreen erases the terminal and homes the cursor.
	ClearScreen = "\033[2J\033[H"
)

// Colorize wraps text with color and a trailing Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf formats and then colorizes.
func Colorf(color, format string, args ...any) string {
	return Colorize(color, fmt.Sprintf(format, args...))
}

// HPColor picks the bar color for hp out of maxHP: green above half,
// yellow above a fifth, red otherwise.
func HPColor(hp, maxHP int) string {
	switch {
	case maxHP <= 0 || hp*5 <= maxHP:
		return Red
	case hp*2 <= maxHP:
		return Yellow
	default:
		return Green
	}
}

var sgr = regexp.MustCompile("\033\\[[0-9;]*[A-Za-z]")

// StripANSI removes escape sequences, leaving printable text.
func StripANSI(s string) string {
	return sgr.ReplaceAllString(s, "")
}
