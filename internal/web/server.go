package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/memorank/memorank/internal/feature"
	"github.com/memorank/memorank/internal/scheduler"
	"github.com/memorank/memorank/internal/session"
)

// Server exposes the review session over a JSON API.
type Server struct {
	session *session.Session
	router  *http.ServeMux
}

// NewServer creates and configures a new server around the session.
func NewServer(sess *session.Session) *Server {
	s := &Server{
		session: sess,
		router:  http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth())
	s.router.HandleFunc("/api/next-card", s.handleNextCard())
	s.router.HandleFunc("/api/answer", s.handleAnswer())
	s.router.HandleFunc("/api/stats", s.handleStats())
	s.router.HandleFunc("/api/cards", s.handleCards())
	s.router.HandleFunc("/api/cards/", s.handleCardDetails())
	s.router.HandleFunc("/api/model", s.handleModelInfo())
	s.router.HandleFunc("/api/reset", s.handleReset())
}

type cardPayload struct {
	CardID            int64          `json:"card_id"`
	Question          string         `json:"question"`
	Answer            string         `json:"answer"`
	Difficulty        int            `json:"difficulty"`
	RecallProbability float64        `json:"recall_probability"`
	Priority          float64        `json:"priority"`
	PriorityReason    string         `json:"priority_reason"`
	Features          feature.Vector `json:"features"`
}

func toCardPayload(sc scheduler.ScheduledCard) cardPayload {
	return cardPayload{
		CardID:            sc.Card.ID,
		Question:          sc.Card.Question,
		Answer:            sc.Card.Answer,
		Difficulty:        sc.Card.Difficulty,
		RecallProbability: sc.Probability,
		Priority:          sc.Priority,
		PriorityReason:    sc.Reason,
		Features:          sc.Features,
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleNextCard returns the card most in need of review. A completed
// pass is reported as 404 so the client can show the done screen.
func (s *Server) handleNextCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sc, err := s.session.NextCard()
		if err != nil {
			if errors.Is(err, session.ErrSessionComplete) {
				writeError(w, http.StatusNotFound, "No cards available")
				return
			}
			slog.Error("failed to pick next card", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, toCardPayload(sc))
	}
}

func (s *Server) handleAnswer() http.HandlerFunc {
	type answerRequest struct {
		CardID  *int64 `json:"card_id"`
		Correct bool   `json:"correct"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.CardID == nil {
			writeError(w, http.StatusBadRequest, "card_id required")
			return
		}

		stats, next, err := s.session.RecordAnswer(*req.CardID, req.Correct)
		if err != nil {
			if errors.Is(err, session.ErrUnknownCard) {
				writeError(w, http.StatusNotFound, "Card not found")
				return
			}
			slog.Error("failed to record answer", "card_id", *req.CardID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		var nextPayload *cardPayload
		if next != nil {
			p := toCardPayload(*next)
			nextPayload = &p
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"recorded": map[string]any{
				"card_id": *req.CardID,
				"correct": req.Correct,
			},
			"stats":     stats,
			"next_card": nextPayload,
			"complete":  nextPayload == nil,
		})
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, s.session.Stats())
	}
}

// handleCards lists every card with its current ranking, most urgent
// first.
func (s *Server) handleCards() http.HandlerFunc {
	type cardSummary struct {
		CardID            int64   `json:"card_id"`
		Question          string  `json:"question"`
		Difficulty        int     `json:"difficulty"`
		RecallProbability float64 `json:"recall_probability"`
		Priority          float64 `json:"priority"`
		NumReviews        int     `json:"num_reviews"`
		PastAccuracy      float64 `json:"past_accuracy"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ranked := s.session.RankAll()
		summaries := make([]cardSummary, 0, len(ranked))
		for _, sc := range ranked {
			summaries = append(summaries, cardSummary{
				CardID:            sc.Card.ID,
				Question:          truncate(sc.Card.Question, 50),
				Difficulty:        sc.Card.Difficulty,
				RecallProbability: sc.Probability,
				Priority:          sc.Priority,
				NumReviews:        sc.Features.NumReviews,
				PastAccuracy:      sc.Features.PastAccuracy,
			})
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func (s *Server) handleCardDetails() http.HandlerFunc {
	type historyPayload struct {
		TotalAttempts int    `json:"total_attempts"`
		CorrectCount  int    `json:"correct_count"`
		LastReview    string `json:"last_review,omitempty"`
	}
	type detailPayload struct {
		cardPayload
		History historyPayload `json:"history"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/api/cards/")
		cardID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid card ID")
			return
		}

		sc, err := s.session.Card(cardID)
		if err != nil {
			if errors.Is(err, session.ErrUnknownCard) {
				writeError(w, http.StatusNotFound, "Card not found")
				return
			}
			slog.Error("failed to load card", "card_id", cardID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		history := historyPayload{
			TotalAttempts: len(sc.Card.History),
			CorrectCount:  sc.Card.CorrectCount(),
		}
		if last, ok := sc.Card.LastReview(); ok {
			history.LastReview = last.Format("2006-01-02 15:04:05")
		}

		writeJSON(w, http.StatusOK, detailPayload{
			cardPayload: toCardPayload(sc),
			History:     history,
		})
	}
}

func (s *Server) handleModelInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		weights := s.session.ModelWeights()
		writeJSON(w, http.StatusOK, map[string]any{
			"feature_names": feature.Names(),
			"coefficients":  weights.Coefficients,
			"intercept":     weights.Bias,
		})
	}
}

func (s *Server) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if _, err := s.session.Reset(); err != nil {
			slog.Error("failed to reset progress", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Progress reset",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// truncate shortens s to at most max runes; byte slicing would split
// multi-byte characters.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
