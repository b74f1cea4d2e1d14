package reconcile

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is open and the cooldown
// has not elapsed. Callers surface it; they must not spin on it.
var ErrCircuitOpen = errors.New("circuit breaker open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker is a failure-count-over-window circuit breaker.
//
// Closed: calls pass; transient failures inside the window accumulate,
// and reaching the threshold opens the circuit. Open: calls fail fast
// with ErrCircuitOpen until the cooldown elapses, then exactly one probe
// is allowed (half-open). The probe's success closes the circuit; its
// failure reopens it and restarts the cooldown.
type Breaker struct {
	threshold int
	window    time.Duration
	cooldown  time.Duration
	now       func() time.Time // injectable for tests

	mu       sync.Mutex
	state    breakerState
	failures []time.Time
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a breaker that opens after threshold failures
// within window and allows a half-open probe after cooldown.
func NewBreaker(threshold int, window, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether a call may proceed right now. In the half-open
// state only the first caller gets through; the rest fail fast until
// the probe resolves.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return nil
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.state = stateHalfOpen
		b.probing = true
		return nil
	case stateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
		return nil
	}
	return nil
}

// Cancel releases a slot admitted by Allow when the call never reached
// the store (caller cancellation, limiter abort). A cancelled half-open
// probe resolves nothing: the circuit stays half-open and the next
// caller may probe. Only an actual store response closes the circuit.
func (b *Breaker) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.probing = false
	}
}

// Record reports the result of a call previously admitted by Allow.
// Only transient errors count against the breaker; validation and
// caller-cancellation errors pass through without tripping it.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.probing = false
		if err == nil {
			b.state = stateClosed
			b.failures = nil
			return
		}
		if IsTransient(err) {
			b.state = stateOpen
			b.openedAt = b.now()
		}
		return
	}

	if err == nil || !IsTransient(err) {
		return
	}

	now := b.now()
	b.failures = append(b.failures, now)

	// Drop failures that slid out of the window.
	cutoff := now.Add(-b.window)
	kept := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.failures = kept

	if len(b.failures) >= b.threshold {
		b.state = stateOpen
		b.openedAt = now
		b.failures = nil
	}
}
