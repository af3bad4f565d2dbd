package storage

const schema = `
-- The 'cards' table stores flashcard content. The integer primary key is
-- the stable card_id handed to the core; the fingerprint ties a row back
-- to its deck file across rescans.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fingerprint TEXT NOT NULL UNIQUE,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    difficulty INTEGER NOT NULL,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- The 'reviews' table is the append-only review history, one row per
-- answer submission.
CREATE TABLE IF NOT EXISTS reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,
    correct INTEGER NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_card ON reviews(card_id, reviewed_at);

-- The 'model_state' table holds the serialized classifier as a single
-- opaque JSON blob. The single-row constraint plus transactional replace
-- gives atomic write-new-then-swap semantics.
CREATE TABLE IF NOT EXISTS model_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    payload TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);

-- The 'sources' table tracks deck origins, either a local directory or a
-- git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL,
    last_scanned DATETIME
);
`
