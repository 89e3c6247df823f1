package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Symbols is the punctuation class a secret must draw at least one character from.
const Symbols = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// DefaultManualMinLength is the shortest secret accepted from manual entry.
const DefaultManualMinLength = 4

var (
	// ErrTooShort reports a secret below the configured minimum length.
	ErrTooShort = errors.New("secret is too short")
	// ErrMissingSymbol reports a secret without any punctuation character.
	ErrMissingSymbol = errors.New("secret must include a symbol")
	// ErrInvalidCharacter reports a line break inside a secret.
	ErrInvalidCharacter = errors.New("secret must not contain line breaks")
)

// Policy holds the composition rules applied to manually entered secrets.
type Policy struct {
	MinLength int
}

// DefaultPolicy returns the policy for manual entry.
func DefaultPolicy() Policy {
	return Policy{MinLength: DefaultManualMinLength}
}

// Validate applies the policy to secret. Length is counted in characters.
func (p Policy) Validate(secret string) error {
	if strings.ContainsAny(secret, "\r\n") {
		return ErrInvalidCharacter
	}
	if n := utf8.RuneCountInString(secret); n < p.MinLength {
		return fmt.Errorf("%w: %d characters, need at least %d", ErrTooShort, n, p.MinLength)
	}
	if !hasSymbol(secret) {
		return ErrMissingSymbol
	}
	return nil
}

func hasSymbol(s string) bool {
	return strings.ContainsAny(s, Symbols)
}
