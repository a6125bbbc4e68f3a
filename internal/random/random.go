package random

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns a cryptographically random string of n ASCII letters.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	upperBound := big.NewInt(int64(len(allowedLetters)))
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, upperBound)
		if err != nil {
			return "", err
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}

// Float64Source produces pseudo-random numbers in [0.0, 1.0).
type Float64Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 {
	return mathrand.Float64() //nolint:gosec // board positions are not security sensitive.
}

// Global is a [Float64Source] backed by the auto-seeded global generator of math/rand/v2.
var Global Float64Source = globalSource{}

// Sequence is a deterministic [Float64Source] that cycles through the given values. It is meant for tests.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence creates a Sequence. An empty sequence always yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
