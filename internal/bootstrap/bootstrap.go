// Package bootstrap produces the synthetic training set and starter
// deck used before any real review history exists. The simulation
// follows an Ebbinghaus-style forgetting curve: memory decays
// exponentially over time, repeated reviews strengthen it, and harder
// cards start from a weaker base.
package bootstrap

import (
	"math"
	"math/rand"

	"github.com/memorank/memorank/internal/domain"
	"github.com/memorank/memorank/internal/feature"
	"github.com/memorank/memorank/internal/model"
)

const (
	// DefaultSessions is the number of simulated review events in the
	// baseline training set.
	DefaultSessions = 500

	// DefaultSeed keeps the baseline reproducible across restarts so a
	// fresh model always starts from the same weights.
	DefaultSeed = 42

	simulatedCards = 50
	noiseStd       = 0.08
)

type cardState struct {
	lastReview int
	reviews    int
	correct    int
	attempts   int
}

// Examples simulates a student studying a pool of cards over many
// sessions and returns the labelled review outcomes.
func Examples(sessions int, seed int64) []model.Example {
	if sessions <= 0 {
		sessions = DefaultSessions
	}
	rng := rand.New(rand.NewSource(seed))

	difficulties := make([]int, simulatedCards)
	states := make([]cardState, simulatedCards)
	for i := range states {
		difficulties[i] = 1 + rng.Intn(5)
		// Stagger initial exposure so first reviews arrive at varying ages.
		states[i] = cardState{lastReview: -(1 + rng.Intn(9))}
	}

	examples := make([]model.Example, 0, sessions)
	currentDay := 0

	for session := 0; session < sessions; session++ {
		if session > 0 && rng.Float64() < 0.2 {
			currentDay += 1 + rng.Intn(2)
		}

		idx := rng.Intn(simulatedCards)
		state := &states[idx]

		daysSince := float64(currentDay - state.lastReview)
		if daysSince < 0 {
			daysSince = 0
		}
		pastAccuracy := feature.DefaultNeutralAccuracy
		if state.attempts > 0 {
			pastAccuracy = float64(state.correct) / float64(state.attempts)
		}

		prob := recallProbability(rng, daysSince, state.reviews, pastAccuracy, difficulties[idx])
		correct := rng.Float64() < prob

		examples = append(examples, model.Example{
			Features: feature.Vector{
				DaysSinceReview: daysSince,
				NumReviews:      state.reviews,
				PastAccuracy:    pastAccuracy,
				Difficulty:      difficulties[idx],
			},
			Correct: correct,
		})

		state.lastReview = currentDay
		state.reviews++
		state.attempts++
		if correct {
			state.correct++
		}
	}

	return examples
}

// recallProbability models recall odds for one simulated review.
// Review count and past accuracy raise the base memory strength,
// difficulty lowers it, and the strength sets the decay rate of an
// exponential forgetting curve.
func recallProbability(rng *rand.Rand, daysSince float64, numReviews int, pastAccuracy float64, difficulty int) float64 {
	reviewStrength := math.Min(1.0, 0.4+0.12*float64(numReviews))
	accuracyBonus := 0.15 * pastAccuracy
	difficultyPenalty := 0.05 * float64(difficulty-1)

	baseStrength := clamp(reviewStrength+accuracyBonus-difficultyPenalty, 0.2, 0.95)

	decayRate := 0.08 / (0.5 + 0.5*baseStrength)
	prob := baseStrength * math.Exp(-decayRate*daysSince)

	prob += rng.NormFloat64() * noiseStd
	return clamp(prob, 0.05, 0.95)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StarterDeck returns a small deck of general-knowledge cards used when
// no deck source is configured yet.
func StarterDeck() []domain.Card {
	raw := []struct {
		q, a string
		d    int
	}{
		{"What is the capital of France?", "Paris", 1},
		{"What is the derivative of x^2?", "2x", 2},
		{"What is the chemical symbol for gold?", "Au", 2},
		{"Who wrote 'Romeo and Juliet'?", "William Shakespeare", 1},
		{"What is the powerhouse of the cell?", "Mitochondria", 2},
		{"What is 12 x 12?", "144", 1},
		{"What is the largest planet in our solar system?", "Jupiter", 2},
		{"What is the quadratic formula?", "x = (-b ± √(b²-4ac)) / 2a", 4},
		{"What is the speed of light (approx)?", "3 x 10^8 m/s", 3},
		{"What is Newton's second law?", "F = ma", 2},
		{"What is the integral of 1/x?", "ln|x| + C", 3},
		{"What year did World War II end?", "1945", 2},
		{"What is the Pythagorean theorem?", "a² + b² = c²", 2},
		{"What is the capital of Japan?", "Tokyo", 1},
		{"What is the chemical formula for water?", "H2O", 1},
		{"Who developed the theory of relativity?", "Albert Einstein", 2},
		{"What is the binary representation of 10?", "1010", 3},
		{"What is the definition of a derivative?", "lim(h→0) [f(x+h) - f(x)] / h", 5},
		{"What is the square root of 169?", "13", 2},
		{"What programming language is known for ML?", "Python", 1},
	}

	cards := make([]domain.Card, 0, len(raw))
	for _, c := range raw {
		cards = append(cards, domain.Card{Question: c.q, Answer: c.a, Difficulty: c.d})
	}
	return cards
}
