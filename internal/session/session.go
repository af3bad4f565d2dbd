// Package session orchestrates the review feedback loop: it hands out
// the next card, records answers, retrains the recall model on fresh
// evidence, and tracks study-period statistics.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/memorank/memorank/internal/domain"
	"github.com/memorank/memorank/internal/feature"
	"github.com/memorank/memorank/internal/model"
	"github.com/memorank/memorank/internal/scheduler"
)

// Sentinel errors. ErrSessionComplete is a valid terminal signal, not a
// failure: it means every card has been reviewed this pass.
var (
	ErrUnknownCard     = errors.New("session: unknown card")
	ErrSessionComplete = errors.New("session: no cards remain this pass")
	ErrNoActiveCard    = errors.New("session: no card has been presented")
)

// State is the session's position in the review loop.
type State int

const (
	AwaitingQuestion State = iota
	AwaitingGrade
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingQuestion:
		return "awaiting_question"
	case AwaitingGrade:
		return "awaiting_grade"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store persists the session's durable state. Implementations must make
// SaveModel atomic: a crash mid-write never leaves a partial blob.
type Store interface {
	AppendReview(cardID int64, ev domain.ReviewEvent) error
	SaveModel(st model.State) error
	DeleteAllReviews() error
}

// Config assembles a Session. Zero-value fields get defaults: a Neutral
// model, real time, the default extractor and the default logger. Store
// may be nil for a purely in-memory session.
type Config struct {
	Cards     []domain.Card
	Model     model.Model
	Baseline  []model.Example // training examples kept across retrains
	Store     Store
	Train     model.TrainConfig
	Extractor feature.Extractor
	Now       func() time.Time
	Logger    *slog.Logger
}

// Session owns all mutable core state (card histories, the model, the
// pass set) behind a single lock. Mutating operations serialize; reads
// may run concurrently with each other but never with a mutation.
type Session struct {
	mu sync.RWMutex

	cards    map[int64]*domain.Card
	order    []int64 // ascending card IDs, for deterministic iteration
	sched    *scheduler.Scheduler
	baseline []model.Example
	store    Store
	train    model.TrainConfig
	now      func() time.Time
	log      *slog.Logger

	state       State
	currentID   int64
	reviewed    map[int64]bool
	periodStart time.Time
}

// New builds a Session over the given cards.
func New(cfg Config) *Session {
	if cfg.Model == nil {
		cfg.Model = model.Neutral{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Extractor == (feature.Extractor{}) {
		cfg.Extractor = feature.NewExtractor()
	}

	cards := make(map[int64]*domain.Card, len(cfg.Cards))
	order := make([]int64, 0, len(cfg.Cards))
	for _, c := range cfg.Cards {
		card := c
		cards[card.ID] = &card
		order = append(order, card.ID)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	return &Session{
		cards:       cards,
		order:       order,
		sched:       &scheduler.Scheduler{Model: cfg.Model, Extractor: cfg.Extractor},
		baseline:    cfg.Baseline,
		store:       cfg.Store,
		train:       cfg.Train,
		now:         cfg.Now,
		log:         cfg.Logger,
		state:       AwaitingQuestion,
		reviewed:    make(map[int64]bool),
		periodStart: cfg.Now(),
	}
}

// NextCard returns the card most in need of review among those not yet
// seen this pass, and moves the session to AwaitingGrade. It returns
// ErrSessionComplete when every card has been reviewed; callers treat
// that as completion, not failure. Calling it again while a card is
// already presented re-scores and returns that same card.
func (s *Session) NextCard() (scheduler.ScheduledCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if s.state == AwaitingGrade {
		if card, ok := s.cards[s.currentID]; ok {
			return s.sched.Score(*card, now), nil
		}
	}

	eligible := s.eligibleLocked()
	picked, ok := s.sched.SelectNext(eligible, now)
	if !ok {
		s.state = Complete
		return scheduler.ScheduledCard{}, ErrSessionComplete
	}

	s.state = AwaitingGrade
	s.currentID = picked.Card.ID
	return picked, nil
}

// RevealAnswer returns the currently presented card. It is a pure read
// used by the presentation layer to show the answer text; no core state
// changes.
func (s *Session) RevealAnswer() (domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != AwaitingGrade {
		return domain.Card{}, ErrNoActiveCard
	}
	card, ok := s.cards[s.currentID]
	if !ok {
		return domain.Card{}, ErrNoActiveCard
	}
	return *card, nil
}

// RecordAnswer appends a review event to the card's history, retrains
// the model so the new evidence affects subsequent ranking, and returns
// the updated stats plus the next card (nil when the pass is complete).
// Returns ErrUnknownCard, with session state unchanged, for an
// unrecognized ID.
func (s *Session) RecordAnswer(cardID int64, correct bool) (domain.SessionStats, *scheduler.ScheduledCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[cardID]
	if !ok {
		return domain.SessionStats{}, nil, fmt.Errorf("%w: id %d", ErrUnknownCard, cardID)
	}

	now := s.now()
	ev := domain.ReviewEvent{Timestamp: now, Correct: correct}

	if s.store != nil {
		if err := s.store.AppendReview(cardID, ev); err != nil {
			return domain.SessionStats{}, nil, fmt.Errorf("persisting review for card %d: %w", cardID, err)
		}
	}

	card.History = append(card.History, ev)
	s.reviewed[cardID] = true
	s.retrainLocked()

	stats := s.statsLocked()

	next, ok := s.sched.SelectNext(s.eligibleLocked(), now)
	if !ok {
		s.state = Complete
		return stats, nil, nil
	}
	s.state = AwaitingGrade
	s.currentID = next.Card.ID
	return stats, &next, nil
}

// Reset clears every card's review history and the pass set, and starts
// a new study period. Learned model weights are preserved: a reset
// clears session history, not learned structure.
func (s *Session) Reset() (domain.SessionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.DeleteAllReviews(); err != nil {
			return domain.SessionStats{}, fmt.Errorf("clearing review history: %w", err)
		}
	}

	for _, card := range s.cards {
		card.History = nil
	}
	s.reviewed = make(map[int64]bool)
	s.state = AwaitingQuestion
	s.currentID = 0
	s.periodStart = s.now()

	return domain.SessionStats{}, nil
}

// Stats recomputes the study-period aggregate from review events
// recorded since the last reset.
func (s *Session) Stats() domain.SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

// RankAll returns the full ranking over every card, ascending by
// predicted recall probability.
func (s *Session) RankAll() []scheduler.ScheduledCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sched.RankAll(s.cardsLocked(), s.now())
}

// Card returns the scheduled view of a single card.
func (s *Session) Card(cardID int64) (scheduler.ScheduledCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.cards[cardID]
	if !ok {
		return scheduler.ScheduledCard{}, fmt.Errorf("%w: id %d", ErrUnknownCard, cardID)
	}
	return s.sched.Score(*card, s.now()), nil
}

// ModelWeights exposes the current classifier coefficients for
// introspection.
func (s *Session) ModelWeights() model.Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sched.Model.Weights()
}

// State returns the session's position in the review loop.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// retrainLocked refits the model on the baseline set plus the replayed
// live history. A degenerate training set installs the explicit Neutral
// fallback instead of a diverged fit. Only trained states are persisted;
// the last good blob stays on disk while the model is neutral.
func (s *Session) retrainLocked() {
	examples := append([]model.Example(nil), s.baseline...)
	examples = append(examples, model.ExamplesFromCards(s.cardsLocked(), s.sched.Extractor)...)

	trained, err := model.Train(examples, s.train)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientData) {
			s.log.Warn("training set degenerate, using neutral model", "examples", len(examples))
			s.sched.Model = model.Neutral{}
			return
		}
		s.log.Error("model retrain failed", "error", err)
		return
	}

	s.sched.Model = trained
	if s.store != nil {
		if err := s.store.SaveModel(trained.State()); err != nil {
			s.log.Error("persisting model state", "error", err)
		}
	}
}

func (s *Session) eligibleLocked() []domain.Card {
	eligible := make([]domain.Card, 0, len(s.order))
	for _, id := range s.order {
		if !s.reviewed[id] {
			eligible = append(eligible, *s.cards[id])
		}
	}
	return eligible
}

func (s *Session) cardsLocked() []domain.Card {
	all := make([]domain.Card, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, *s.cards[id])
	}
	return all
}

func (s *Session) statsLocked() domain.SessionStats {
	var stats domain.SessionStats
	for _, id := range s.order {
		for _, ev := range s.cards[id].History {
			if ev.Timestamp.Before(s.periodStart) {
				continue
			}
			stats.Total++
			if ev.Correct {
				stats.Correct++
			}
		}
	}
	if stats.Total > 0 {
		stats.Accuracy = float64(stats.Correct) / float64(stats.Total)
	}
	return stats
}
