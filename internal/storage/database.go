package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/memorank/memorank/internal/domain"
	"github.com/memorank/memorank/internal/model"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// Sentinel errors for persisted model state. Both are recoverable:
// callers fall back to the neutral model instead of failing the session.
var (
	ErrNoModel      = errors.New("storage: no model state persisted")
	ErrCorruptModel = errors.New("storage: corrupt model state")
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertCard inserts a new card and returns its assigned ID.
func (db *DB) InsertCard(card domain.Card, sourceID int64) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO cards (fingerprint, question, answer, difficulty, source_id)
		VALUES (?, ?, ?, ?, ?)
	`,
		card.Fingerprint(),
		card.Question,
		card.Answer,
		card.Difficulty,
		sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert card %s: %w", card.Fingerprint(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get ID for card %s: %w", card.Fingerprint(), err)
	}
	return id, nil
}

// FindCardByFingerprint retrieves a card by its content fingerprint.
// Returns (nil, nil) when no such card exists.
func (db *DB) FindCardByFingerprint(fingerprint string) (*domain.Card, error) {
	var c domain.Card
	row := db.conn.QueryRow(`
		SELECT id, question, answer, difficulty
		FROM cards WHERE fingerprint = ?
	`, fingerprint)

	err := row.Scan(&c.ID, &c.Question, &c.Answer, &c.Difficulty)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by fingerprint %s: %w", fingerprint, err)
	}
	return &c, nil
}

// LoadCards returns all cards with their review histories attached, each
// history ordered by review time.
func (db *DB) LoadCards() ([]domain.Card, error) {
	rows, err := db.conn.Query(`
		SELECT id, question, answer, difficulty
		FROM cards ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	index := make(map[int64]int)
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer, &c.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		index[c.ID] = len(cards)
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}

	revRows, err := db.conn.Query(`
		SELECT card_id, reviewed_at, correct
		FROM reviews ORDER BY reviewed_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	defer revRows.Close()

	for revRows.Next() {
		var cardID int64
		var ev domain.ReviewEvent
		if err := revRows.Scan(&cardID, &ev.Timestamp, &ev.Correct); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		if i, ok := index[cardID]; ok {
			cards[i].History = append(cards[i].History, ev)
		}
	}
	if err := revRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}

	return cards, nil
}

// AppendReview records one answer submission for a card.
func (db *DB) AppendReview(cardID int64, ev domain.ReviewEvent) error {
	_, err := db.conn.Exec(`
		INSERT INTO reviews (card_id, reviewed_at, correct)
		VALUES (?, ?, ?)
	`, cardID, ev.Timestamp, ev.Correct)
	if err != nil {
		return fmt.Errorf("failed to append review for card %d: %w", cardID, err)
	}
	return nil
}

// DeleteAllReviews clears the entire review history (session reset).
func (db *DB) DeleteAllReviews() error {
	if _, err := db.conn.Exec(`DELETE FROM reviews`); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	return nil
}

// SaveModel persists the classifier state as a single JSON blob. The
// replace runs inside a transaction so a crash mid-write never leaves a
// partial weight vector.
func (db *DB) SaveModel(st model.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode model state: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin model save: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO model_state (id, payload, updated_at)
		VALUES (1, ?, ?)
	`, string(payload), time.Now()); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save model state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit model save: %w", err)
	}
	return nil
}

// LoadModel restores the persisted classifier state. Returns ErrNoModel
// when nothing has been saved and ErrCorruptModel when the blob cannot
// be decoded; both are fail-soft signals for the caller to start from
// the neutral model.
func (db *DB) LoadModel() (model.State, error) {
	var payload string
	row := db.conn.QueryRow(`SELECT payload FROM model_state WHERE id = 1`)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return model.State{}, ErrNoModel
		}
		return model.State{}, fmt.Errorf("failed to load model state: %w", err)
	}

	var st model.State
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return model.State{}, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	return st, nil
}

// Source is a deck origin, either a local directory or a git URL.
type Source struct {
	ID          int64
	Path        string
	Kind        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource registers a new deck source and returns its ID.
func (db *DB) InsertSource(path, kind string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, kind)
		VALUES (?, ?)
	`, path, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by path. Returns (nil, nil) when
// no such source exists.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, kind, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Kind, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all registered deck sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, kind, last_scanned
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Kind, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned stamps a source after a successful sync.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source %d: %w", sourceID, err)
	}
	return nil
}

// CardRef identifies a stored card for reconciliation.
type CardRef struct {
	ID          int64
	Fingerprint string
}

// GetCardRefsBySource lists the cards currently attributed to a source.
func (db *DB) GetCardRefsBySource(sourceID int64) ([]CardRef, error) {
	rows, err := db.conn.Query(`
		SELECT id, fingerprint
		FROM cards WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var refs []CardRef
	for rows.Next() {
		var ref CardRef
		if err := rows.Scan(&ref.ID, &ref.Fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan card ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// DeleteCard removes a card and its review history.
func (db *DB) DeleteCard(cardID int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin card delete: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM reviews WHERE card_id = ?`, cardID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete reviews for card %d: %w", cardID, err)
	}
	if _, err := tx.Exec(`DELETE FROM cards WHERE id = ?`, cardID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete card %d: %w", cardID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card delete: %w", err)
	}
	return nil
}
