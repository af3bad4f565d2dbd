// Package scheduler ranks cards by predicted recall probability and
// selects the next card to present: lowest recall first, since those are
// the cards most likely to be forgotten.
package scheduler

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/memorank/memorank/internal/domain"
	"github.com/memorank/memorank/internal/feature"
	"github.com/memorank/memorank/internal/model"
)

// ScheduledCard is a card with its prediction and a human-readable
// justification for its position in the queue.
type ScheduledCard struct {
	Card        domain.Card
	Probability float64
	Priority    float64 // 1 - Probability; higher = more urgent
	Reason      string
	Features    feature.Vector
}

// Scheduler scores cards with the model and orders them for review.
type Scheduler struct {
	Model     model.Model
	Extractor feature.Extractor
}

// New returns a Scheduler over the given model with default extraction.
func New(m model.Model) *Scheduler {
	return &Scheduler{Model: m, Extractor: feature.NewExtractor()}
}

// SelectNext returns the eligible card with the lowest predicted recall
// probability. Ties break by ascending card ID so the same input state
// always yields the same choice. ok is false when no cards are given;
// callers treat that as session completion, not an error.
func (s *Scheduler) SelectNext(cards []domain.Card, now time.Time) (ScheduledCard, bool) {
	ranked := s.RankAll(cards, now)
	if len(ranked) == 0 {
		return ScheduledCard{}, false
	}
	return ranked[0], true
}

// RankAll scores every card and returns the full ranking, ascending by
// probability with ties broken by ascending card ID. Calling it twice
// without an intervening mutation yields identical output.
func (s *Scheduler) RankAll(cards []domain.Card, now time.Time) []ScheduledCard {
	ranked := make([]ScheduledCard, 0, len(cards))
	for _, card := range cards {
		ranked = append(ranked, s.score(card, now))
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Probability != ranked[j].Probability {
			return ranked[i].Probability < ranked[j].Probability
		}
		return ranked[i].Card.ID < ranked[j].Card.ID
	})

	return ranked
}

// Score returns the scheduled view of a single card.
func (s *Scheduler) Score(card domain.Card, now time.Time) ScheduledCard {
	return s.score(card, now)
}

func (s *Scheduler) score(card domain.Card, now time.Time) ScheduledCard {
	v := s.Extractor.Extract(card, now)
	p := s.Model.Predict(v)
	return ScheduledCard{
		Card:        card,
		Probability: p,
		Priority:    1 - p,
		Reason:      s.reason(v, p),
		Features:    v,
	}
}

// reason maps the prediction to one of a fixed set of templates, chosen
// by the feature contribution that most moves the log-odds away from a
// neutral reference card (just reviewed, no history signal, middle
// difficulty). Rule-based and deterministic: ties resolve in canonical
// feature order.
func (s *Scheduler) reason(v feature.Vector, p float64) string {
	w := s.Model.Weights()

	reference := []float64{0, 0, s.Extractor.NeutralAccuracy, 3}
	dominant := -1
	var dominantMove, maxAbs float64

	for i, name := range feature.Names() {
		move := w.Coefficients[name] * (v.Slice()[i] - reference[i])
		if abs := math.Abs(move); abs > maxAbs+1e-12 {
			maxAbs = abs
			dominant = i
			dominantMove = move
		}
	}

	if dominant < 0 || maxAbs < 1e-9 {
		// Untrained or neutral model: fall back to probability bands.
		return bandReason(p)
	}

	forgetting := dominantMove < 0
	switch feature.Names()[dominant] {
	case feature.DaysSinceReview:
		if forgetting {
			return fmt.Sprintf("not reviewed in %.0f days", v.DaysSinceReview)
		}
		return "reviewed recently"
	case feature.NumReviews:
		if forgetting {
			return "few prior reviews"
		}
		return fmt.Sprintf("reinforced by %d past reviews", v.NumReviews)
	case feature.PastAccuracy:
		if forgetting {
			return "historically low accuracy"
		}
		return "historically strong accuracy"
	default:
		if forgetting {
			return "high difficulty"
		}
		return "low difficulty"
	}
}

func bandReason(p float64) string {
	switch {
	case p < 0.3:
		return "high risk of forgetting"
	case p < 0.5:
		return "moderate risk of forgetting"
	case p < 0.7:
		return "good retention, review helps"
	default:
		return "strong memory, low priority"
	}
}
