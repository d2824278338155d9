// Package cachestore persists recommendations to sqlite so repeated runs
// over the same project reuse prior inference results without touching the
// backend again.
package cachestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/devamjariwala24/pycodeadvisor/internal/advice"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/ports"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store is a ports.RecommendationStore backed by a single sqlite file.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates or opens the cache database at path, applies pending
// migrations and purges entries whose TTL has already elapsed.
func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeCacheError, "cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.New(errors.CodeCacheError, fmt.Sprintf("cache path %q is a directory, expected file", cleanPath))
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeCacheError, "create cache directory")
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "open cache database")
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeCacheError, "ping cache database")
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeCacheError, "initialize cache schema")
	}

	s := &Store{path: cleanPath, db: db}
	if err := s.purgeExpired(time.Now()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Put upserts one entry keyed by fingerprint. The latest recommendation for
// a fingerprint always wins.
func (s *Store) Put(ctx context.Context, entry ports.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(entry.Fingerprint) == "" {
		return errors.New(errors.CodeCacheError, "cache entry needs a fingerprint")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
INSERT INTO recommendations (fingerprint, explanation, suggested_fix, confidence, source, created_at_utc, ttl_seconds)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(fingerprint) DO UPDATE SET
  explanation=excluded.explanation,
  suggested_fix=excluded.suggested_fix,
  confidence=excluded.confidence,
  source=excluded.source,
  created_at_utc=excluded.created_at_utc,
  ttl_seconds=excluded.ttl_seconds
`
	return s.withRetry("save recommendation", func() error {
		_, err := s.db.ExecContext(ctx, query,
			entry.Fingerprint,
			entry.Recommendation.Explanation,
			entry.Recommendation.SuggestedFix,
			entry.Recommendation.Confidence,
			string(entry.Recommendation.Source),
			createdAt.UTC().Format(time.RFC3339Nano),
			int64(entry.TTL/time.Second),
		)
		return err
	})
}

// LoadAll returns every persisted entry, expired ones included: the in-memory
// cache applies its own TTL policy when warming.
func (s *Store) LoadAll(ctx context.Context) ([]ports.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT fingerprint, explanation, suggested_fix, confidence, source, created_at_utc, ttl_seconds
FROM recommendations
ORDER BY created_at_utc ASC
`
	var rows *sql.Rows
	err := s.withRetry("load recommendations", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]ports.CacheEntry, 0)
	for rows.Next() {
		var (
			entry      ports.CacheEntry
			source     string
			createdRaw string
			ttlSeconds int64
		)
		if err := rows.Scan(
			&entry.Fingerprint,
			&entry.Recommendation.Explanation,
			&entry.Recommendation.SuggestedFix,
			&entry.Recommendation.Confidence,
			&source,
			&createdRaw,
			&ttlSeconds,
		); err != nil {
			return nil, errors.Wrap(err, errors.CodeCacheError, "scan recommendation row")
		}
		entry.Recommendation.Source = advice.Source(source)
		createdAt, err := time.Parse(time.RFC3339Nano, createdRaw)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeCacheError, "parse recommendation timestamp")
		}
		entry.CreatedAt = createdAt.UTC()
		entry.TTL = time.Duration(ttlSeconds) * time.Second

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "iterate recommendation rows")
	}

	return entries, nil
}

// purgeExpired drops rows whose TTL elapsed before now. Rows with a zero TTL
// never expire.
func (s *Store) purgeExpired(now time.Time) error {
	query := `
DELETE FROM recommendations
WHERE ttl_seconds > 0
  AND (strftime('%s', ?) - strftime('%s', created_at_utc)) >= ttl_seconds
`
	nowRaw := now.UTC().Format(time.RFC3339Nano)
	return s.withRetry("purge expired recommendations", func() error {
		_, err := s.db.Exec(query, nowRaw)
		return err
	})
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return errors.AddContext(
		errors.Wrap(lastErr, errors.CodeCacheError, op),
		errors.CtxOperation, op)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
