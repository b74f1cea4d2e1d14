package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a manually-advanced time source for breaker tests.
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func transientErr() error {
	return &TransientError{Op: "get", Err: errors.New("connection reset")}
}

func newTestBreaker(threshold int, window, cooldown time.Duration) (*Breaker, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(threshold, window, cooldown)
	b.now = c.now
	return b, c
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute, 30*time.Second)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Allow())
		b.Record(transientErr())
	}

	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreaker_NonTransientDoesNotTrip(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute, 30*time.Second)

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Allow())
		b.Record(&ValidationError{Field: "x", Message: "bad"})
	}
	assert.NoError(t, b.Allow(), "validation errors never open the circuit")
}

func TestBreaker_WindowExpiresFailures(t *testing.T) {
	b, c := newTestBreaker(3, time.Minute, 30*time.Second)

	require.NoError(t, b.Allow())
	b.Record(transientErr())
	require.NoError(t, b.Allow())
	b.Record(transientErr())

	// The first two failures slide out of the window.
	c.advance(2 * time.Minute)

	require.NoError(t, b.Allow())
	b.Record(transientErr())
	assert.NoError(t, b.Allow(), "stale failures must not count toward the threshold")
}

func TestBreaker_HalfOpenProbeSuccess(t *testing.T) {
	b, c := newTestBreaker(1, time.Minute, 30*time.Second)

	require.NoError(t, b.Allow())
	b.Record(transientErr())
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	c.advance(31 * time.Second)

	// One probe is admitted; concurrent callers fail fast.
	require.NoError(t, b.Allow())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	b.Record(nil)
	assert.NoError(t, b.Allow(), "successful probe closes the circuit")
}

func TestBreaker_CancelledProbeDoesNotClose(t *testing.T) {
	b, c := newTestBreaker(1, time.Minute, 30*time.Second)

	require.NoError(t, b.Allow())
	b.Record(transientErr())

	c.advance(31 * time.Second)
	require.NoError(t, b.Allow())

	// The admitted probe never reached the store.
	b.Cancel()

	// The circuit is still half-open, not closed: exactly one caller
	// gets the released probe slot, the next fails fast.
	require.NoError(t, b.Allow())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen,
		"a cancelled probe must not close the circuit")

	// The replacement probe's failure reopens as usual.
	b.Record(transientErr())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreaker_CancelInClosedStateIsNoOp(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute, 30*time.Second)

	require.NoError(t, b.Allow())
	b.Cancel()
	assert.NoError(t, b.Allow())
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b, c := newTestBreaker(1, time.Minute, 30*time.Second)

	require.NoError(t, b.Allow())
	b.Record(transientErr())

	c.advance(31 * time.Second)
	require.NoError(t, b.Allow())
	b.Record(transientErr())

	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen, "failed probe restarts the cooldown")

	c.advance(31 * time.Second)
	assert.NoError(t, b.Allow(), "cooldown elapses again after the failed probe")
}
