package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"

	alphabet = letters + digits + Symbols

	// DefaultGenMinLength is the floor applied to requested generated lengths.
	DefaultGenMinLength = 8
	// DefaultGenMaxLength is the ceiling applied to requested generated lengths.
	DefaultGenMaxLength = 14

	maxDraws = 1000
)

// GeneratorBounds clamps the length of generated secrets.
type GeneratorBounds struct {
	Min int
	Max int
}

// DefaultGeneratorBounds returns the 8..14 window.
func DefaultGeneratorBounds() GeneratorBounds {
	return GeneratorBounds{Min: DefaultGenMinLength, Max: DefaultGenMaxLength}
}

// Generator produces random secrets over letters, digits and Symbols.
type Generator struct {
	bounds GeneratorBounds
}

// NewGenerator validates bounds and returns a Generator.
func NewGenerator(b GeneratorBounds) (*Generator, error) {
	if b.Min < 1 {
		return nil, fmt.Errorf("generator minimum length must be positive, got %d", b.Min)
	}
	if b.Max < b.Min {
		return nil, fmt.Errorf("generator maximum length %d is below minimum %d", b.Max, b.Min)
	}
	return &Generator{bounds: b}, nil
}

// Bounds returns the generator's length window.
func (g *Generator) Bounds() GeneratorBounds { return g.bounds }

// Generate returns a secret of the requested length clamped into the bounds.
// capped reports that the request exceeded the maximum and was cut down.
// Each character is drawn uniformly and independently; a candidate without a
// symbol is discarded and drawn again.
func (g *Generator) Generate(length int) (secret string, capped bool, err error) {
	if length < g.bounds.Min {
		length = g.bounds.Min
	}
	if length > g.bounds.Max {
		length = g.bounds.Max
		capped = true
	}

	for i := 0; i < maxDraws; i++ {
		candidate, err := draw(length)
		if err != nil {
			return "", capped, err
		}
		if hasSymbol(candidate) {
			return candidate, capped, nil
		}
	}
	return "", capped, fmt.Errorf("no symbol drawn after %d attempts", maxDraws)
}

func draw(length int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
