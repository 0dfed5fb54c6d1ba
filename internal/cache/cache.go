// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists fetched venue submission listings in a local
// SQLite database so repeated searches against the same venue do not
// re-download thousands of notes. Entries expire after a TTL; the cache is
// an optimization only and every miss falls through to the API client.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/openreview-mcp/pkg/types"
)

const dbFile = "cache.db"

// now is the cache clock. Tests override it to force expiry.
var now = time.Now

// Store manages the venue listing cache database.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open creates or opens the cache database at cfg.Dir/cache.db and ensures
// the schema exists.
func Open(cfg types.CacheConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	s := &Store{db: db, ttl: ttl}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS venue_listings (
		venue_key  TEXT PRIMARY KEY,
		fetched_at TEXT NOT NULL,
		payload    BLOB NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Get returns the cached submissions for a venue spec, or ok=false when
// the entry is missing, expired, or unreadable. Cache problems never fail
// the caller; a broken entry behaves like a miss.
func (s *Store) Get(ctx context.Context, spec types.VenueSpec) ([]types.Submission, bool) {
	var fetchedAt string
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM venue_listings WHERE venue_key = ?`,
		spec.String(),
	).Scan(&fetchedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) || err != nil {
		return nil, false
	}

	ts, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil || now().Sub(ts) > s.ttl {
		return nil, false
	}

	var subs []types.Submission
	if err := json.Unmarshal(payload, &subs); err != nil {
		return nil, false
	}
	return subs, true
}

// Put stores a venue's submissions, replacing any previous entry.
func (s *Store) Put(ctx context.Context, spec types.VenueSpec, subs []types.Submission) error {
	payload, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("encoding cache payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO venue_listings (venue_key, fetched_at, payload) VALUES (?, ?, ?)`,
		spec.String(), now().UTC().Format(time.RFC3339), payload,
	)
	if err != nil {
		return fmt.Errorf("storing cache entry for %s: %w", spec, err)
	}
	return nil
}

// Purge removes expired entries. Called opportunistically; failures are
// harmless since Get ignores stale rows anyway.
func (s *Store) Purge(ctx context.Context) error {
	cutoff := now().Add(-s.ttl).UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM venue_listings WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("purging cache: %w", err)
	}
	return nil
}
