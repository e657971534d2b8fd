// Package storage handles persistence of analysis-call records in SQLite.
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_calls (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    query            TEXT NOT NULL,
    ticker           TEXT NOT NULL DEFAULT '',
    provider         TEXT NOT NULL,
    model            TEXT NOT NULL DEFAULT '',
    success          BOOLEAN NOT NULL DEFAULT 0,
    is_mock          BOOLEAN NOT NULL DEFAULT 0,
    confidence_score INTEGER,
    error_message    TEXT,
    duration_ms      INTEGER,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_analysis_calls_provider ON analysis_calls(provider);
CREATE INDEX IF NOT EXISTS idx_analysis_calls_created_at ON analysis_calls(created_at);
`

// NewDatabase opens the SQLite database and runs migrations. WAL mode allows
// concurrent reads while writing; busy_timeout waits out lock contention
// instead of failing.
func NewDatabase(dbPath string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
