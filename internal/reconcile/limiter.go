package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates external calls with a token bucket plus a minimum
// inter-call spacing. The spacing floor exists because some external
// stores throttle on call gaps rather than average rate.
type Limiter struct {
	bucket  *rate.Limiter
	spacing time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewLimiter creates a limiter allowing perSecond sustained calls with
// at least spacing between consecutive calls.
func NewLimiter(perSecond float64, spacing time.Duration) *Limiter {
	return &Limiter{
		bucket:  rate.NewLimiter(rate.Limit(perSecond), 1),
		spacing: spacing,
	}
}

// Wait blocks until both the rate budget and the spacing floor allow the
// next call, or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	wait := l.spacing - time.Since(l.lastCall)
	l.mu.Unlock()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	l.mu.Lock()
	l.lastCall = time.Now()
	l.mu.Unlock()
	return nil
}
