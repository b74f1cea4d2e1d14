package lease

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/lineage/internal/ledger"
)

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *time.Time) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(s.DB(), ttl)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestAcquire_ThenHeld(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)
	ctx := context.Background()

	if err := m.Acquire(ctx, "f1", "alice"); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if err := m.Acquire(ctx, "f1", "bob"); !errors.Is(err, ErrHeld) {
		t.Fatalf("Acquire() by second owner err = %v, want ErrHeld", err)
	}

	owner, ok, err := m.Holder(ctx, "f1")
	if err != nil || !ok {
		t.Fatalf("Holder() = %v %v", ok, err)
	}
	if owner != "alice" {
		t.Errorf("owner = %q, want alice", owner)
	}
}

func TestAcquire_Reentrant(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)
	ctx := context.Background()

	if err := m.Acquire(ctx, "f1", "alice"); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if err := m.Acquire(ctx, "f1", "alice"); err != nil {
		t.Errorf("re-acquire by the holder should refresh, got %v", err)
	}
}

func TestAcquire_StealsExpired(t *testing.T) {
	m, now := newTestManager(t, time.Minute)
	ctx := context.Background()

	if err := m.Acquire(ctx, "f1", "alice"); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	*now = now.Add(2 * time.Minute)

	if err := m.Acquire(ctx, "f1", "bob"); err != nil {
		t.Fatalf("Acquire() after expiry failed: %v", err)
	}
	owner, ok, err := m.Holder(ctx, "f1")
	if err != nil || !ok {
		t.Fatalf("Holder() = %v %v", ok, err)
	}
	if owner != "bob" {
		t.Errorf("owner = %q, want bob (steal-on-expiry)", owner)
	}
}

func TestRenew(t *testing.T) {
	m, now := newTestManager(t, time.Minute)
	ctx := context.Background()

	if err := m.Acquire(ctx, "f1", "alice"); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	*now = now.Add(45 * time.Second)
	if err := m.Renew(ctx, "f1", "alice"); err != nil {
		t.Fatalf("Renew() failed: %v", err)
	}

	// The renewed lease survives past the original expiry.
	*now = now.Add(45 * time.Second)
	owner, ok, err := m.Holder(ctx, "f1")
	if err != nil || !ok {
		t.Fatalf("Holder() after renew = %v %v", ok, err)
	}
	if owner != "alice" {
		t.Errorf("owner = %q, want alice", owner)
	}

	if err := m.Renew(ctx, "f1", "bob"); !errors.Is(err, ErrHeld) {
		t.Errorf("Renew() by non-holder err = %v, want ErrHeld", err)
	}
}

func TestRelease(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)
	ctx := context.Background()

	if err := m.Acquire(ctx, "f1", "alice"); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if err := m.Release(ctx, "f1", "alice"); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}

	if _, ok, _ := m.Holder(ctx, "f1"); ok {
		t.Error("lease should be gone after release")
	}
	if err := m.Acquire(ctx, "f1", "bob"); err != nil {
		t.Errorf("Acquire() after release failed: %v", err)
	}
	// Releasing a lease not held is a no-op.
	if err := m.Release(ctx, "f1", "alice"); err != nil {
		t.Errorf("Release() of foreign lease err = %v, want nil", err)
	}
}

func TestHolder_ExpiredLeaseHidden(t *testing.T) {
	m, now := newTestManager(t, time.Minute)
	ctx := context.Background()

	if err := m.Acquire(ctx, "f1", "alice"); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	*now = now.Add(2 * time.Minute)

	if _, ok, err := m.Holder(ctx, "f1"); err != nil || ok {
		t.Errorf("Holder() = %v %v, want hidden after expiry", ok, err)
	}
}

func TestAcquire_RequiresIDs(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	if err := m.Acquire(context.Background(), "", "alice"); err == nil {
		t.Error("Acquire() without fact id should fail")
	}
	if err := m.Acquire(context.Background(), "f1", ""); err == nil {
		t.Error("Acquire() without owner should fail")
	}
}
