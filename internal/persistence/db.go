// Package persistence provides a SQLite-backed cache of raw external data
// responses, so restarts and repeated enrichments reuse earlier fetches.
// Simulation state itself is never stored.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection holding cached responses.
type DB struct {
	conn   *sqlx.DB
	maxAge time.Duration
}

// DefaultMaxAge is how long a cached response stays valid.
const DefaultMaxAge = 24 * time.Hour

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps in-memory databases on a single connection.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, maxAge: DefaultMaxAge}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// SetMaxAge changes how long cached responses are served.
func (db *DB) SetMaxAge(d time.Duration) {
	db.maxAge = d
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS samples (
		key TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_fetched ON samples(fetched_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type sampleRow struct {
	Body      []byte `db:"body"`
	FetchedAt int64  `db:"fetched_at"`
}

// Get returns the cached body for key if present and younger than the max age.
func (db *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row sampleRow
	err := db.conn.GetContext(ctx, &row, "SELECT body, fetched_at FROM samples WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get sample %q: %w", key, err)
	}
	if time.Since(time.Unix(row.FetchedAt, 0)) > db.maxAge {
		return nil, false, nil
	}
	return row.Body, true, nil
}

// Put stores body under key, replacing any earlier entry.
func (db *DB) Put(ctx context.Context, key string, body []byte) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO samples (key, body, fetched_at) VALUES (?, ?, ?)",
		key, body, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("put sample %q: %w", key, err)
	}
	return nil
}

// Prune deletes entries older than the max age and returns how many went.
func (db *DB) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-db.maxAge).Unix()
	res, err := db.conn.ExecContext(ctx, "DELETE FROM samples WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune samples: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.Info("pruned cached samples", "count", n)
	}
	return n, nil
}

// Count returns the number of cached entries.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM samples")
	return n, err
}
