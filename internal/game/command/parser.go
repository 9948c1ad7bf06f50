package command

import (
	"strconv"
	"strings"
)

// ParseResult is one line of trainer input split into words.
type ParseResult struct {
	// Command is the first word, lowercased.
	Command string
	// Args are the remaining words.
	Args []string
}

// Parse splits line into a command word and arguments.
//
// Postcondition: Command is empty iff line is blank.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}

// Slot converts a 1-based move slot word into a 0-based index.
//
// Postcondition: ok is false unless word is a positive integer.
func Slot(word string) (index int, ok bool) {
	n, err := strconv.Atoi(word)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
