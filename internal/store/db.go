// Package store persists tidied sample metadata and differential-
// expression results in a local SQLite database. Everything here is
// write-once-then-read: a re-run replaces a series wholesale.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

const schema = `
CREATE TABLE IF NOT EXISTS series (
	accession  TEXT PRIMARY KEY,
	tidied_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	accession      TEXT PRIMARY KEY,
	series         TEXT NOT NULL REFERENCES series(accession) ON DELETE CASCADE,
	platform       TEXT NOT NULL,
	supplementary  TEXT NOT NULL,
	title          TEXT NOT NULL,
	condition      TEXT NOT NULL,
	treatment      TEXT NOT NULL,
	elapsed        TEXT NOT NULL,
	replicate      INTEGER NOT NULL,
	chip           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_series ON samples(series);

CREATE TABLE IF NOT EXISTS de_results (
	series       TEXT NOT NULL REFERENCES series(accession) ON DELETE CASCADE,
	rank         INTEGER NOT NULL,
	gene         TEXT NOT NULL,
	log_fc       REAL NOT NULL,
	ave_expr     REAL NOT NULL,
	t            REAL NOT NULL,
	p_value      REAL NOT NULL,
	adj_p_value  REAL NOT NULL,
	PRIMARY KEY (series, rank)
);
`

// OpenDB opens (and if needed initializes) the SQLite store with WAL
// mode and foreign keys enabled.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &DB{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}
