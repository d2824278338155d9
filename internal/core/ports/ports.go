// Package ports declares the seams between the pipeline core and its
// swappable collaborators: inference backends and recommendation persistence.
package ports

import (
	"context"
	"time"

	"github.com/devamjariwala24/pycodeadvisor/internal/advice"
	"github.com/devamjariwala24/pycodeadvisor/internal/engine/inspector"
)

// RawSuggestion is the backend's unprocessed answer for one fault.
type RawSuggestion struct {
	Explanation  string
	SuggestedFix string
	// Confidence is only meaningful when ConfidenceReported is true; some
	// backends do not rate their own answers.
	Confidence         float64
	ConfidenceReported bool
}

// InferenceClient sends one fault to a backend and returns its suggestion.
// Implementations fail with CodeBackendUnavailable for transient conditions
// (eligible for one bounded retry) and CodeBackendRejected for malformed or
// unauthorized requests (never retried). The pipeline never branches on
// which implementation is active.
type InferenceClient interface {
	Infer(ctx context.Context, event inspector.ErrorEvent) (*RawSuggestion, error)
}

// CacheEntry is one stored recommendation keyed by fingerprint. Entries are
// replaced atomically, never mutated in place.
type CacheEntry struct {
	Fingerprint    string
	Recommendation advice.Recommendation
	CreatedAt      time.Time
	TTL            time.Duration // zero means no expiry
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e CacheEntry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) >= e.TTL
}

// RecommendationStore persists cache entries across runs.
type RecommendationStore interface {
	LoadAll(ctx context.Context) ([]CacheEntry, error)
	Put(ctx context.Context, entry CacheEntry) error
	Close() error
}
