package feature

import (
	"math"
	"testing"
	"time"

	"github.com/memorank/memorank/internal/domain"
)

var testNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func TestExtractNeverReviewed(t *testing.T) {
	e := NewExtractor()
	card := domain.Card{ID: 1, Question: "Q", Answer: "A", Difficulty: 5}

	v := e.Extract(card, testNow)

	if v.DaysSinceReview != DefaultNeverReviewedDays {
		t.Errorf("DaysSinceReview = %f, want sentinel %d", v.DaysSinceReview, DefaultNeverReviewedDays)
	}
	if v.NumReviews != 0 {
		t.Errorf("NumReviews = %d, want 0", v.NumReviews)
	}
	if v.PastAccuracy != 0.5 {
		t.Errorf("PastAccuracy = %f, want neutral 0.5", v.PastAccuracy)
	}
	if v.Difficulty != 5 {
		t.Errorf("Difficulty = %d, want 5", v.Difficulty)
	}
}

func TestExtractWithHistory(t *testing.T) {
	e := NewExtractor()
	card := domain.Card{
		ID: 2, Question: "Q", Answer: "A", Difficulty: 2,
		History: []domain.ReviewEvent{
			{Timestamp: testNow.Add(-10 * 24 * time.Hour), Correct: true},
			{Timestamp: testNow.Add(-5 * 24 * time.Hour), Correct: false},
			{Timestamp: testNow.Add(-3 * 24 * time.Hour), Correct: true},
			{Timestamp: testNow.Add(-2 * 24 * time.Hour), Correct: true},
		},
	}

	v := e.Extract(card, testNow)

	if math.Abs(v.DaysSinceReview-2) > 1e-9 {
		t.Errorf("DaysSinceReview = %f, want 2", v.DaysSinceReview)
	}
	if v.NumReviews != 4 {
		t.Errorf("NumReviews = %d, want 4", v.NumReviews)
	}
	if math.Abs(v.PastAccuracy-0.75) > 1e-9 {
		t.Errorf("PastAccuracy = %f, want 0.75", v.PastAccuracy)
	}
}

func TestExtractFlooredAtZeroDays(t *testing.T) {
	// A last review recorded after "now" (clock skew) must not produce a
	// negative elapsed time.
	e := NewExtractor()
	card := domain.Card{
		ID: 3, Question: "Q", Answer: "A", Difficulty: 1,
		History: []domain.ReviewEvent{{Timestamp: testNow.Add(time.Hour), Correct: true}},
	}

	if v := e.Extract(card, testNow); v.DaysSinceReview != 0 {
		t.Errorf("DaysSinceReview = %f, want 0", v.DaysSinceReview)
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor()
	card := domain.Card{
		ID: 4, Question: "Q", Answer: "A", Difficulty: 3,
		History: []domain.ReviewEvent{{Timestamp: testNow.Add(-24 * time.Hour), Correct: true}},
	}

	if e.Extract(card, testNow) != e.Extract(card, testNow) {
		t.Error("Extract is not deterministic for identical inputs")
	}
}

func TestSliceMatchesNames(t *testing.T) {
	v := Vector{DaysSinceReview: 7, NumReviews: 3, PastAccuracy: 0.5, Difficulty: 4}
	s := v.Slice()

	if len(s) != Count || len(Names()) != Count {
		t.Fatalf("Slice/Names length mismatch: %d, %d, want %d", len(s), len(Names()), Count)
	}
	want := []float64{7, 3, 0.5, 4}
	for i := range want {
		if s[i] != want[i] {
			t.Errorf("Slice()[%d] = %f, want %f (%s)", i, s[i], want[i], Names()[i])
		}
	}
}
