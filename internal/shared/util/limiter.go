package util

import (
	"time"

	"golang.org/x/time/rate"
)

// Budget enforces the external-inference call ceiling for one run: at most
// maxCalls acquisitions per window, shared by every fault regardless of
// fingerprint, since backend cost accrues per call. Internally a token
// bucket with burst maxCalls refilled over the window, so a fully spent
// budget is whole again one window after exhaustion.
//
// Safe for concurrent use.
type Budget struct {
	inner *rate.Limiter
}

// NewBudget creates a budget of maxCalls per window. maxCalls <= 0 yields a
// budget that denies every acquisition, which disables inference entirely.
func NewBudget(maxCalls int, window time.Duration) *Budget {
	if maxCalls <= 0 {
		return &Budget{inner: rate.NewLimiter(0, 0)}
	}
	if window <= 0 {
		window = time.Minute
	}
	r := rate.Limit(float64(maxCalls) / window.Seconds())
	return &Budget{inner: rate.NewLimiter(r, maxCalls)}
}

// TryAcquire consumes one call from the budget. Denial is flow control, not
// an error: the caller degrades to local-only analysis.
func (b *Budget) TryAcquire() bool {
	return b.inner.AllowN(time.Now(), 1)
}
