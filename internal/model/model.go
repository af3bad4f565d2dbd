package model

import (
	"errors"

	"github.com/memorank/memorank/internal/feature"
)

// Sentinel errors for the model package.
// Use errors.Is to check: errors.Is(err, model.ErrInsufficientData)
var (
	// ErrInsufficientData is returned when training is attempted on an
	// empty or single-class example set. Callers recover by installing
	// Neutral rather than keeping a degenerate fit.
	ErrInsufficientData = errors.New("model: insufficient training data")

	// ErrCorruptState is returned when a persisted weight blob cannot be
	// restored into a usable classifier.
	ErrCorruptState = errors.New("model: corrupt model state")
)

// Model maps a feature vector to a recall probability. Implementations
// must return values strictly inside [0, 1] and never NaN.
type Model interface {
	Predict(v feature.Vector) float64
	Weights() Weights
}

// Weights exposes the classifier's coefficients on the raw feature scale,
// keyed by feature.Names, for explanation and introspection.
type Weights struct {
	Coefficients map[string]float64 `json:"coefficients"`
	Bias         float64            `json:"bias"`
}

// Example is one labeled training observation.
type Example struct {
	Features feature.Vector
	Correct  bool
}

func (e Example) label() float64 {
	if e.Correct {
		return 1
	}
	return 0
}
