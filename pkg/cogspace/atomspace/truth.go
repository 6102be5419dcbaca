package atomspace

import (
	"fmt"

	"github.com/cognicore/cogspace/pkg/cogspace/internalerr"
)

// TruthValue is a (strength, confidence) pair, both in [0,1].
// The fields are unexported so every value in circulation has been range checked.
type TruthValue struct {
	strength   float64
	confidence float64
}

// NewTruthValue validates and builds a truth value.
func NewTruthValue(strength, confidence float64) (TruthValue, error) {
	if !inUnit(strength) {
		return TruthValue{}, fmt.Errorf("%w: strength %v outside [0,1]", internalerr.ErrInvalidInput, strength)
	}
	if !inUnit(confidence) {
		return TruthValue{}, fmt.Errorf("%w: confidence %v outside [0,1]", internalerr.ErrInvalidInput, confidence)
	}
	return TruthValue{strength: strength, confidence: confidence}, nil
}

// MustTruthValue is NewTruthValue for constants; it panics on invalid input.
func MustTruthValue(strength, confidence float64) TruthValue {
	tv, err := NewTruthValue(strength, confidence)
	if err != nil {
		panic(err)
	}
	return tv
}

// DefaultTruth is assigned to atoms created without an explicit truth value.
func DefaultTruth() TruthValue {
	return TruthValue{strength: 1.0, confidence: 1.0}
}

func (tv TruthValue) Strength() float64   { return tv.strength }
func (tv TruthValue) Confidence() float64 { return tv.confidence }

// Weight is confidence × strength, the per-premise factor used by inference.
func (tv TruthValue) Weight() float64 { return tv.strength * tv.confidence }

func (tv TruthValue) String() string {
	return fmt.Sprintf("<%.3f, %.3f>", tv.strength, tv.confidence)
}

func inUnit(v float64) bool {
	// NaN fails both comparisons
	return v >= 0 && v <= 1
}
