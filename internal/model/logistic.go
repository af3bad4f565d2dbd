package model

import (
	"fmt"
	"math"

	"github.com/memorank/memorank/internal/feature"
)

// Probabilities are clamped away from exact 0 and 1 so downstream
// log-odds and threshold logic stays well-defined. The floor sits far
// below sigmoid's output at any realistic logit, so heavily overdue
// cards keep distinct probabilities and strict ranking order instead of
// collapsing onto the clamp; only an underflowed exponential hits it.
const (
	probFloor = 1e-300
	probCeil  = 1 - 1e-15
)

// TrainConfig configures batch training. Zero values are replaced with
// defaults: Epochs=400, LearningRate=0.5, L2=1e-4.
type TrainConfig struct {
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
	L2           float64 `json:"l2"`
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.Epochs == 0 {
		c.Epochs = 400
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.5
	}
	if c.L2 == 0 {
		c.L2 = 1e-4
	}
	return c
}

// Logistic is a logistic-regression recall classifier over the canonical
// feature ordering. Inputs are standardized per feature before the linear
// term, so gradient descent converges on raw-scale day counts; Weights
// reports coefficients translated back to the raw scale.
type Logistic struct {
	// weights holds one coefficient per feature plus a trailing bias,
	// all in standardized input space.
	weights   []float64
	means     []float64
	scales    []float64
	trainedOn int
	stepRate  float64 // learning rate for online Update steps
}

// State is the serializable form of a Logistic, persisted as an opaque
// blob between process runs.
type State struct {
	Weights   []float64 `json:"weights"` // len feature.Count+1, bias last
	Means     []float64 `json:"means"`
	Scales    []float64 `json:"scales"`
	TrainedOn int       `json:"trained_on"`
	StepRate  float64   `json:"step_rate"`
}

// Train fits a Logistic on the labeled examples with full-batch gradient
// descent on the log-loss. It returns ErrInsufficientData when the set is
// empty or contains only one class; callers should fall back to Neutral
// in that case.
func Train(examples []Example, cfg TrainConfig) (*Logistic, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: no examples", ErrInsufficientData)
	}

	positive := 0
	for _, ex := range examples {
		if ex.Correct {
			positive++
		}
	}
	if positive == 0 || positive == len(examples) {
		return nil, fmt.Errorf("%w: all %d examples share one label", ErrInsufficientData, len(examples))
	}

	cfg = cfg.withDefaults()

	means, scales := fitStandardization(examples)
	n := float64(len(examples))

	l := &Logistic{
		weights:   make([]float64, feature.Count+1),
		means:     means,
		scales:    scales,
		trainedOn: len(examples),
		stepRate:  cfg.LearningRate / 10,
	}

	grad := make([]float64, feature.Count+1)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for i := range grad {
			grad[i] = 0
		}

		for _, ex := range examples {
			x := l.standardize(ex.Features)
			err := l.forward(x) - ex.label()
			for i, xi := range x {
				grad[i] += err * xi
			}
			grad[feature.Count] += err
		}

		for i := 0; i < feature.Count; i++ {
			l.weights[i] -= cfg.LearningRate * (grad[i]/n + cfg.L2*l.weights[i])
		}
		l.weights[feature.Count] -= cfg.LearningRate * grad[feature.Count] / n
	}

	return l, nil
}

// Update absorbs one new observation with a single gradient step at the
// model's stored step rate, reusing the standardization fitted at the
// last batch train. Repeated passes over the same data keep the model
// near what a batch retrain would produce. It is the incremental path
// for callers that embed the model directly and cannot afford a batch
// retrain per observation; the review session always retrains with
// Train, which remains the source of truth.
func (l *Logistic) Update(ex Example) {
	x := l.standardize(ex.Features)
	err := l.forward(x) - ex.label()
	for i, xi := range x {
		l.weights[i] -= l.stepRate * err * xi
	}
	l.weights[feature.Count] -= l.stepRate * err
	l.trainedOn++
}

// Predict returns the probability of correct recall for the features.
// The result is always strictly inside (0, 1) and never NaN.
func (l *Logistic) Predict(v feature.Vector) float64 {
	return clampProbability(l.forward(l.standardize(v)))
}

// Weights returns the coefficients translated back to the raw feature
// scale, so that bias + Σ coef_i·x_i reproduces the model's log-odds for
// raw inputs.
func (l *Logistic) Weights() Weights {
	coefs := make(map[string]float64, feature.Count)
	bias := l.weights[feature.Count]
	for i, name := range feature.Names() {
		raw := l.weights[i] / l.scales[i]
		coefs[name] = raw
		bias -= raw * l.means[i]
	}
	return Weights{Coefficients: coefs, Bias: bias}
}

// TrainedOn returns the number of examples the model has absorbed.
func (l *Logistic) TrainedOn() int {
	return l.trainedOn
}

// State returns the serializable model state.
func (l *Logistic) State() State {
	s := State{
		Weights:   append([]float64(nil), l.weights...),
		Means:     append([]float64(nil), l.means...),
		Scales:    append([]float64(nil), l.scales...),
		TrainedOn: l.trainedOn,
		StepRate:  l.stepRate,
	}
	return s
}

// FromState restores a Logistic from persisted state. It returns
// ErrCorruptState for malformed blobs (wrong lengths, non-finite values)
// so callers can fall back to Neutral instead of propagating NaN.
func FromState(s State) (*Logistic, error) {
	if len(s.Weights) != feature.Count+1 || len(s.Means) != feature.Count || len(s.Scales) != feature.Count {
		return nil, fmt.Errorf("%w: want %d weights, %d means/scales; got %d/%d/%d",
			ErrCorruptState, feature.Count+1, feature.Count, len(s.Weights), len(s.Means), len(s.Scales))
	}
	for _, vs := range [][]float64{s.Weights, s.Means, s.Scales} {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite value %f", ErrCorruptState, v)
			}
		}
	}
	for _, sc := range s.Scales {
		if sc <= 0 {
			return nil, fmt.Errorf("%w: non-positive scale %f", ErrCorruptState, sc)
		}
	}

	stepRate := s.StepRate
	if stepRate <= 0 {
		stepRate = 0.05
	}

	return &Logistic{
		weights:   append([]float64(nil), s.Weights...),
		means:     append([]float64(nil), s.Means...),
		scales:    append([]float64(nil), s.Scales...),
		trainedOn: s.TrainedOn,
		stepRate:  stepRate,
	}, nil
}

// forward computes sigmoid(w·x + bias) for a standardized input.
func (l *Logistic) forward(x []float64) float64 {
	z := l.weights[feature.Count]
	for i, xi := range x {
		z += l.weights[i] * xi
	}
	return sigmoid(z)
}

func (l *Logistic) standardize(v feature.Vector) []float64 {
	raw := v.Slice()
	x := make([]float64, feature.Count)
	for i, r := range raw {
		x[i] = (r - l.means[i]) / l.scales[i]
	}
	return x
}

// fitStandardization computes per-feature mean and standard deviation.
// Constant features get scale 1 so standardization stays well-defined.
func fitStandardization(examples []Example) (means, scales []float64) {
	means = make([]float64, feature.Count)
	scales = make([]float64, feature.Count)
	n := float64(len(examples))

	for _, ex := range examples {
		for i, v := range ex.Features.Slice() {
			means[i] += v
		}
	}
	for i := range means {
		means[i] /= n
	}

	for _, ex := range examples {
		for i, v := range ex.Features.Slice() {
			d := v - means[i]
			scales[i] += d * d
		}
	}
	for i := range scales {
		scales[i] = math.Sqrt(scales[i] / n)
		if scales[i] == 0 {
			scales[i] = 1
		}
	}
	return means, scales
}

// sigmoid is a numerically stable logistic function: the exponential is
// always taken of a non-positive argument, so it cannot overflow.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func clampProbability(p float64) float64 {
	if p < probFloor {
		return probFloor
	}
	if p > probCeil {
		return probCeil
	}
	return p
}
