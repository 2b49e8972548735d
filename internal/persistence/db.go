// Package persistence provides SQLite-based campaign state storage.
package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for campaign state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
// modernc's driver takes pragmas as _pragma=name(value) pairs, not the
// mattn-style _journal_mode keys, which it would silently ignore.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS game_clock (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		calendar_date TEXT,
		absolute_day INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS ledger_account (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		annual_interest_percent TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS recurring_item (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		description TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL,
		linked_account_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS objective (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		estimated_months INTEGER NOT NULL,
		base_estimated_months INTEGER NOT NULL DEFAULT 0,
		total_cost TEXT NOT NULL DEFAULT '0',
		progress_percentage TEXT NOT NULL DEFAULT '0',
		linked_account_id INTEGER,
		start_day INTEGER
	);

	CREATE TABLE IF NOT EXISTS imprevisto_event (
		id TEXT PRIMARY KEY,
		objective_id INTEGER NOT NULL REFERENCES objective(id),
		description TEXT NOT NULL,
		response_options_json TEXT NOT NULL,
		player_choice_json TEXT,
		handled INTEGER NOT NULL DEFAULT 0,
		event_day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recurring_frequency ON recurring_item(frequency);
	CREATE INDEX IF NOT EXISTS idx_objective_status ON objective(status);
	CREATE INDEX IF NOT EXISTS idx_imprevisto_handled ON imprevisto_event(handled);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMeta stores a key-value pair in campaign metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO campaign_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM campaign_meta WHERE key = ?", key)
	return value, err
}
