package model

import "github.com/memorank/memorank/internal/feature"

// Neutral is the explicit fallback classifier used when no trained model
// is available: insufficient or degenerate training data, or a corrupt
// persisted state. It predicts maximal uncertainty for every input.
type Neutral struct{}

// Predict returns 0.5 for all inputs.
func (Neutral) Predict(feature.Vector) float64 { return 0.5 }

// Weights returns all-zero coefficients.
func (Neutral) Weights() Weights {
	coefs := make(map[string]float64, feature.Count)
	for _, name := range feature.Names() {
		coefs[name] = 0
	}
	return Weights{Coefficients: coefs}
}

var _ Model = Neutral{}
var _ Model = (*Logistic)(nil)
