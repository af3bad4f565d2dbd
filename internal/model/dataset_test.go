package model

import (
	"testing"
	"time"

	"github.com/memorank/memorank/internal/domain"
	"github.com/memorank/memorank/internal/feature"
)

func TestExamplesFromCardsReplaysHistory(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	card := domain.Card{
		ID: 1, Question: "Q", Answer: "A", Difficulty: 2,
		History: []domain.ReviewEvent{
			{Timestamp: t0, Correct: false},
			{Timestamp: t0.Add(24 * time.Hour), Correct: true},
			{Timestamp: t0.Add(4 * 24 * time.Hour), Correct: true},
		},
	}

	examples := ExamplesFromCards([]domain.Card{card}, feature.NewExtractor())
	if len(examples) != 3 {
		t.Fatalf("got %d examples, want 3", len(examples))
	}

	// First event: no prior history, so sentinel days and neutral accuracy.
	first := examples[0]
	if first.Features.DaysSinceReview != feature.DefaultNeverReviewedDays {
		t.Errorf("first example days = %f, want sentinel", first.Features.DaysSinceReview)
	}
	if first.Features.NumReviews != 0 || first.Features.PastAccuracy != 0.5 {
		t.Errorf("first example = %+v, want zero reviews and neutral accuracy", first.Features)
	}
	if first.Correct {
		t.Error("first example label = true, want false")
	}

	// Second event: one prior (incorrect) review, one day earlier.
	second := examples[1]
	if second.Features.NumReviews != 1 || second.Features.PastAccuracy != 0 {
		t.Errorf("second example = %+v, want 1 review with accuracy 0", second.Features)
	}
	if second.Features.DaysSinceReview != 1 {
		t.Errorf("second example days = %f, want 1", second.Features.DaysSinceReview)
	}

	// Third event: two prior reviews, one correct, three days elapsed.
	third := examples[2]
	if third.Features.NumReviews != 2 || third.Features.PastAccuracy != 0.5 {
		t.Errorf("third example = %+v, want 2 reviews with accuracy 0.5", third.Features)
	}
	if third.Features.DaysSinceReview != 3 {
		t.Errorf("third example days = %f, want 3", third.Features.DaysSinceReview)
	}
}

func TestExamplesFromCardsEmptyHistories(t *testing.T) {
	cards := []domain.Card{
		{ID: 1, Question: "Q1", Answer: "A1", Difficulty: 1},
		{ID: 2, Question: "Q2", Answer: "A2", Difficulty: 5},
	}
	if got := ExamplesFromCards(cards, feature.NewExtractor()); len(got) != 0 {
		t.Errorf("got %d examples from empty histories, want 0", len(got))
	}
}
