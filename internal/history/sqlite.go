// Package history keeps a record of finished compile passes in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/pub/internal/compiler"
	"git.home.luguber.info/inful/pub/internal/logfields"
)

// DefaultLimit is the number of entries Recent returns when limit <= 0.
const DefaultLimit = 20

// Store records build summaries.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		build_trigger TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms REAL NOT NULL,
		artifacts INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		bytes INTEGER NOT NULL,
		digest TEXT NOT NULL,
		error TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a summary.
func (s *Store) Record(ctx context.Context, sum compiler.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, build_trigger, started_at, duration_ms, artifacts, failures, bytes, digest, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.BuildID, sum.Trigger, sum.StartedAt.UnixMilli(), sum.Duration,
		sum.Artifacts, sum.Failures, sum.Bytes, sum.Digest, sum.Error,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Recent returns up to limit summaries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]compiler.Summary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, build_trigger, started_at, duration_ms, artifacts, failures, bytes, digest, error
		FROM builds ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []compiler.Summary
	for rows.Next() {
		var (
			sum     compiler.Summary
			started int64
		)
		if err := rows.Scan(&sum.BuildID, &sum.Trigger, &started, &sum.Duration,
			&sum.Artifacts, &sum.Failures, &sum.Bytes, &sum.Digest, &sum.Error); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		sum.StartedAt = time.UnixMilli(started).UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Observer returns a build observer that records every pass. Failures to
// record are logged and otherwise ignored.
func (s *Store) Observer(logger *slog.Logger) func(context.Context, compiler.Summary) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, sum compiler.Summary) {
		if err := s.Record(ctx, sum); err != nil {
			logger.Warn("Failed to record build history", logfields.BuildID(sum.BuildID), logfields.Error(err))
		}
	}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
