package models

import "regexp"

// nameRe allows 1..32 chars, starting with a letter, from [A-Za-z0-9_-].
var nameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,31}$`)

// ValidateAgentName returns ErrInvalidName / ErrNameTooLong if name
// violates the naming rules, nil otherwise.
func ValidateAgentName(name string) error {
	if len(name) > 32 {
		return ErrNameTooLong(name)
	}
	if !nameRe.MatchString(name) {
		return ErrInvalidName(name)
	}
	return nil
}
