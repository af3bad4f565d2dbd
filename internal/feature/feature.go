package feature

import (
	"time"

	"github.com/memorank/memorank/internal/domain"
)

// Feature names in the canonical model input order. The model's weight
// vector is keyed by this ordering plus a trailing bias term.
const (
	DaysSinceReview = "days_since_review"
	NumReviews      = "num_reviews"
	PastAccuracy    = "past_accuracy"
	Difficulty      = "difficulty"
)

var names = []string{DaysSinceReview, NumReviews, PastAccuracy, Difficulty}

// Names returns the canonical feature ordering.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Count is the number of features in a Vector.
const Count = 4

// Vector is the fixed-schema numeric summary of a card's review history
// at a point in time. It is derived, never persisted: time is a parameter
// of the computation, not stored state.
type Vector struct {
	DaysSinceReview float64 `json:"days_since_review"`
	NumReviews      int     `json:"num_reviews"`
	PastAccuracy    float64 `json:"past_accuracy"`
	Difficulty      int     `json:"difficulty"`
}

// Slice returns the vector in canonical order for model input.
func (v Vector) Slice() []float64 {
	return []float64{v.DaysSinceReview, float64(v.NumReviews), v.PastAccuracy, float64(v.Difficulty)}
}

// Extractor computes feature vectors from cards. The zero value is not
// usable; construct with NewExtractor.
type Extractor struct {
	// NeverReviewedDays is the DaysSinceReview sentinel for cards with no
	// history. Must be large enough (>= 30) that downstream ranking treats
	// unseen cards as long overdue.
	NeverReviewedDays float64

	// NeutralAccuracy is the PastAccuracy default for cards with no
	// history: maximal uncertainty, not 0 or 1.
	NeutralAccuracy float64
}

// DefaultNeverReviewedDays is the sentinel for never-reviewed cards.
const DefaultNeverReviewedDays = 999

// DefaultNeutralAccuracy is the PastAccuracy assumed before any attempts.
const DefaultNeutralAccuracy = 0.5

// NewExtractor returns an Extractor with the default sentinel (999 days)
// and neutral accuracy (0.5).
func NewExtractor() Extractor {
	return Extractor{
		NeverReviewedDays: DefaultNeverReviewedDays,
		NeutralAccuracy:   DefaultNeutralAccuracy,
	}
}

// Extract computes the card's feature vector as of now. It is
// deterministic given the card snapshot and now, and has no side effects.
func (e Extractor) Extract(card domain.Card, now time.Time) Vector {
	v := Vector{
		DaysSinceReview: e.NeverReviewedDays,
		NumReviews:      len(card.History),
		PastAccuracy:    e.NeutralAccuracy,
		Difficulty:      card.Difficulty,
	}

	if last, ok := card.LastReview(); ok {
		days := now.Sub(last).Hours() / 24
		if days < 0 {
			days = 0
		}
		v.DaysSinceReview = days
	}

	if v.NumReviews > 0 {
		v.PastAccuracy = float64(card.CorrectCount()) / float64(v.NumReviews)
	}

	return v
}
