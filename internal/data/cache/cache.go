// Package cache stores computed recommendations keyed by fault fingerprint.
// It guarantees at most one concurrent computation per fingerprint and never
// caches failed computations.
package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devamjariwala24/pycodeadvisor/internal/advice"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/ports"
)

type Config struct {
	// TTL after which an entry expires; zero means entries never expire.
	TTL time.Duration
	// Capacity bounds the entry count with LRU eviction; zero means
	// unbounded.
	Capacity int
}

type ResponseCache struct {
	ttl     time.Duration
	entries *lruStore[string, ports.CacheEntry]
	group   singleflight.Group
	store   ports.RecommendationStore // optional write-through persistence
	now     func() time.Time
}

// New creates a cache. store may be nil; when present, fresh computations
// are written through and WarmFromStore can preload previous runs' entries.
func New(cfg Config, store ports.RecommendationStore) *ResponseCache {
	return &ResponseCache{
		ttl:     cfg.TTL,
		entries: newLRUStore[string, ports.CacheEntry](cfg.Capacity),
		store:   store,
		now:     time.Now,
	}
}

// WarmFromStore preloads persisted entries, dropping any that have expired.
func (c *ResponseCache) WarmFromStore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	persisted, err := c.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	now := c.now()
	loaded := 0
	for _, entry := range persisted {
		if entry.Expired(now) {
			continue
		}
		c.entries.Put(entry.Fingerprint, entry)
		loaded++
	}
	slog.Debug("warmed recommendation cache", "entries", loaded)
	return nil
}

// Lookup returns the cached recommendation for a fingerprint, expiring
// entries lazily.
func (c *ResponseCache) Lookup(fingerprint string) (advice.Recommendation, bool) {
	entry, ok := c.entries.Get(fingerprint)
	if !ok {
		return advice.Recommendation{}, false
	}
	if entry.Expired(c.now()) {
		c.entries.Evict(fingerprint)
		return advice.Recommendation{}, false
	}
	return entry.Recommendation, true
}

// GetOrCompute returns the cached recommendation or runs compute to produce
// one. Concurrent callers with the same fingerprint share a single compute
// invocation. The cached return value reports whether this caller's result
// came from somewhere other than its own computation: a cache hit, or a
// compute another caller was already running. Compute failures are returned
// to every waiting caller and are not cached, so the next call retries.
func (c *ResponseCache) GetOrCompute(
	ctx context.Context,
	fingerprint string,
	compute func(ctx context.Context) (advice.Recommendation, error),
) (advice.Recommendation, bool, error) {
	if rec, ok := c.Lookup(fingerprint); ok {
		return rec, true, nil
	}

	// computed stays false for callers whose closure never ran (they joined
	// another caller's flight) and for a leader whose re-check hit.
	computed := false
	result, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		// A racing caller may have finished between our miss and this flight.
		if rec, ok := c.Lookup(fingerprint); ok {
			return rec, nil
		}
		rec, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.insert(fingerprint, rec)
		computed = true
		return rec, nil
	})
	if err != nil {
		return advice.Recommendation{}, false, err
	}
	return result.(advice.Recommendation), !computed, nil
}

func (c *ResponseCache) insert(fingerprint string, rec advice.Recommendation) {
	entry := ports.CacheEntry{
		Fingerprint:    fingerprint,
		Recommendation: rec,
		CreatedAt:      c.now(),
		TTL:            c.ttl,
	}
	c.entries.Put(fingerprint, entry)

	if c.store != nil {
		if err := c.store.Put(context.Background(), entry); err != nil {
			slog.Warn("failed to persist recommendation", "fingerprint", fingerprint, "error", err)
		}
	}
}

// Len returns the number of live entries, counting expired ones until their
// lazy eviction.
func (c *ResponseCache) Len() int {
	return c.entries.Len()
}
