package model

import (
	"github.com/memorank/memorank/internal/domain"
	"github.com/memorank/memorank/internal/feature"
)

// ExamplesFromCards replays each card's review history into labeled
// training examples. For every event, the features are computed as they
// stood at the moment the answer was recorded: only the events before it
// count, and elapsed time is measured at its timestamp. Cards are
// processed in the order given and events in history order, so the
// output is deterministic.
func ExamplesFromCards(cards []domain.Card, extractor feature.Extractor) []Example {
	var examples []Example

	for _, card := range cards {
		replay := domain.Card{
			ID:         card.ID,
			Question:   card.Question,
			Answer:     card.Answer,
			Difficulty: card.Difficulty,
		}

		for i, ev := range card.History {
			replay.History = card.History[:i]
			examples = append(examples, Example{
				Features: extractor.Extract(replay, ev.Timestamp),
				Correct:  ev.Correct,
			})
		}
	}

	return examples
}
