package domain

import (
	"testing"
	"time"
)

func TestFingerprintStableAcrossFormatting(t *testing.T) {
	a := Card{Question: "What is the capital of France?", Answer: "Paris", Difficulty: 1}
	b := Card{Question: "  what is the capital of france?  ", Answer: "PARIS\r\n", Difficulty: 1}

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("fingerprints differ for equivalent content:\n%s\n%s", a.Fingerprint(), b.Fingerprint())
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	base := Card{Question: "Q", Answer: "A", Difficulty: 2}

	variants := []Card{
		{Question: "Q2", Answer: "A", Difficulty: 2},
		{Question: "Q", Answer: "A2", Difficulty: 2},
		{Question: "Q", Answer: "A", Difficulty: 3},
	}

	for _, v := range variants {
		if v.Fingerprint() == base.Fingerprint() {
			t.Errorf("fingerprint collision between %+v and %+v", base, v)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		wantErr bool
	}{
		{"valid", Card{Question: "Q", Answer: "A", Difficulty: 3}, false},
		{"missing question", Card{Answer: "A", Difficulty: 3}, true},
		{"missing answer", Card{Question: "Q", Difficulty: 3}, true},
		{"difficulty too low", Card{Question: "Q", Answer: "A", Difficulty: 0}, true},
		{"difficulty too high", Card{Question: "Q", Answer: "A", Difficulty: 6}, true},
	}

	for _, tt := range tests {
		err := tt.card.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestLastReview(t *testing.T) {
	card := Card{Question: "Q", Answer: "A", Difficulty: 1}

	if _, ok := card.LastReview(); ok {
		t.Error("LastReview() reported a review for an empty history")
	}

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)
	card.History = append(card.History,
		ReviewEvent{Timestamp: first, Correct: true},
		ReviewEvent{Timestamp: second, Correct: false},
	)

	got, ok := card.LastReview()
	if !ok || !got.Equal(second) {
		t.Errorf("LastReview() = %v, %v, want %v, true", got, ok, second)
	}

	if n := card.CorrectCount(); n != 1 {
		t.Errorf("CorrectCount() = %d, want 1", n)
	}
}
