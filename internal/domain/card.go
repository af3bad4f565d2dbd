package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Card is a single question-answer entry together with its review history.
// ID is assigned by storage at load time and is stable for the card's
// lifetime; Question, Answer and Difficulty are immutable author content.
type Card struct {
	ID         int64
	Question   string `validate:"required"`
	Answer     string `validate:"required"`
	Difficulty int    `validate:"min=1,max=5"`

	// History is append-only and ordered by timestamp. Only the review
	// session appends to it.
	History []ReviewEvent
}

// ReviewEvent records one answer submission for a card.
type ReviewEvent struct {
	Timestamp time.Time
	Correct   bool
}

// SessionStats aggregates review outcomes for the current study period.
type SessionStats struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

var validate = validator.New()

// Validate checks the card's author-supplied content.
func (c Card) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid card %q: %w", c.Question, err)
	}
	return nil
}

// Fingerprint returns a stable SHA-256 hex digest of the card's content.
// Question, answer and difficulty are normalized (lowercased, trimmed,
// unix line endings) before hashing so formatting edits in a deck file
// don't orphan the card's review history.
func (c Card) Fingerprint() string {
	normalize := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		return strings.ReplaceAll(p, "\r\n", "\n")
	}

	payload := strings.Join([]string{
		normalize(c.Question),
		normalize(c.Answer),
		fmt.Sprintf("%d", c.Difficulty),
	}, "\n")

	return fmt.Sprintf("%x", sha256.Sum256([]byte(payload)))
}

// LastReview returns the timestamp of the most recent review event and
// whether the card has been reviewed at all.
func (c Card) LastReview() (time.Time, bool) {
	if len(c.History) == 0 {
		return time.Time{}, false
	}
	return c.History[len(c.History)-1].Timestamp, true
}

// CorrectCount returns the number of correct answers in the card's history.
func (c Card) CorrectCount() int {
	n := 0
	for _, ev := range c.History {
		if ev.Correct {
			n++
		}
	}
	return n
}
