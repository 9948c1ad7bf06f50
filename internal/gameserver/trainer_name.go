package gameserver

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// MaxTrainerNameLen bounds trainer names in characters.
const MaxTrainerNameLen = 16

// ErrInvalidTrainerName is wrapped by every trainer name rejection.
var ErrInvalidTrainerName = errors.New("invalid trainer name")

var (
	// ErrEmptyTrainerName is returned for a blank name.
	ErrEmptyTrainerName = fmt.Errorf("%w: name is empty", ErrInvalidTrainerName)
	// ErrTrainerNameTooLong is returned for names over MaxTrainerNameLen characters.
	ErrTrainerNameTooLong = fmt.Errorf("%w: name is longer than %d characters", ErrInvalidTrainerName, MaxTrainerNameLen)
	// ErrTrainerNameCharacters is returned for names with anything but letters, digits, '_' and '-'.
	ErrTrainerNameCharacters = fmt.Errorf("%w: name may only use letters, digits, '_' and '-'", ErrInvalidTrainerName)
)

// ValidateTrainerName reports why name cannot identify a trainer, or nil.
func ValidateTrainerName(name string) error {
	if name == "" {
		return ErrEmptyTrainerName
	}
	if utf8.RuneCountInString(name) > MaxTrainerNameLen {
		return ErrTrainerNameTooLong
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return ErrTrainerNameCharacters
		}
	}
	return nil
}
