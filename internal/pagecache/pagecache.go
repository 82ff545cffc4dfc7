// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pagecache keeps converted page text in a SQLite database so that
// repeated runs do not refetch the same URL within a time-to-live. Only
// successful, non-empty fetches are stored, and the full text is kept so
// callers may apply any character limit on read.
package pagecache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite-backed page cache. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens or creates the cache database at path. A non-positive ttl keeps
// entries forever.
func Open(path string, ttl time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening page cache: %w", err)
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pages (
			url TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached text for url if present and younger than the TTL.
func (s *Store) Get(ctx context.Context, url string) (string, bool) {
	var text string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT text, fetched_at FROM pages WHERE url = ?`, url,
	).Scan(&text, &fetchedAt)
	if err != nil {
		return "", false
	}
	if s.ttl > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) > s.ttl {
		return "", false
	}
	return text, true
}

// Put stores the full text fetched from url, replacing any earlier entry.
// Empty text is ignored.
func (s *Store) Put(ctx context.Context, url, text string) error {
	if text == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (url, text, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET text = excluded.text, fetched_at = excluded.fetched_at`,
		url, text, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("caching %s: %w", url, err)
	}
	return nil
}

// Prune deletes entries older than the TTL and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning page cache: %w", err)
	}
	return res.RowsAffected()
}
