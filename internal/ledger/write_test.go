package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/roach88/lineage/internal/entity"
)

func TestAppend_ReturnsKey(t *testing.T) {
	s := openTestStore(t)

	key, err := s.Append(context.Background(), testFact("f1", 1))
	if err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if key != "f1:1" {
		t.Errorf("key = %q, want %q", key, "f1:1")
	}
}

func TestAppend_ContiguousVersions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		if _, err := s.Append(ctx, testFact("f1", v)); err != nil {
			t.Fatalf("Append(v%d) failed: %v", v, err)
		}
	}

	latest, err := s.LatestVersion(ctx, "f1")
	if err != nil {
		t.Fatalf("LatestVersion() failed: %v", err)
	}
	if latest != 3 {
		t.Errorf("LatestVersion() = %d, want 3", latest)
	}
}

func TestAppend_RejectsVersionGap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, testFact("f1", 1)); err != nil {
		t.Fatalf("Append(v1) failed: %v", err)
	}

	_, err := s.Append(ctx, testFact("f1", 3))
	if !IsSequenceError(err) {
		t.Fatalf("Append(v3) err = %v, want SequenceError", err)
	}
	var se *SequenceError
	if !errors.As(err, &se) {
		t.Fatal("expected *SequenceError")
	}
	if se.Got != 3 || se.Want != 2 {
		t.Errorf("SequenceError = got %d want %d; expected got 3 want 2", se.Got, se.Want)
	}
}

func TestAppend_RejectsDuplicateVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, testFact("f1", 1)); err != nil {
		t.Fatalf("Append(v1) failed: %v", err)
	}
	if _, err := s.Append(ctx, testFact("f1", 1)); !IsSequenceError(err) {
		t.Fatalf("second Append(v1) err = %v, want SequenceError", err)
	}
}

func TestAppend_RejectsFirstVersionNotOne(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Append(context.Background(), testFact("f1", 2)); !IsSequenceError(err) {
		t.Fatalf("Append(v2) on empty fact err = %v, want SequenceError", err)
	}
}

func TestAppend_ValidatesFact(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bad := testFact("f1", 1)
	bad.Fingerprint = "short"
	if _, err := s.Append(ctx, bad); err == nil {
		t.Error("Append() should reject a malformed fingerprint")
	}

	bad = testFact("f1", 1)
	bad.Status = "bogus"
	if _, err := s.Append(ctx, bad); err == nil {
		t.Error("Append() should reject an unknown status")
	}
}

func TestAppendThen_HookCommitsWithFact(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var hooked entity.Fact
	_, err := s.AppendThen(ctx, testFact("f1", 1), func(tx *sql.Tx, f entity.Fact) error {
		hooked = f
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projection (fact_id, version, kind, status, fingerprint, search_text)
			VALUES (?, ?, ?, ?, ?, '')
		`, f.FactID, f.Version, string(f.Kind), string(f.Status), f.Fingerprint)
		return err
	})
	if err != nil {
		t.Fatalf("AppendThen() failed: %v", err)
	}
	if hooked.FactID != "f1" {
		t.Errorf("hook fact = %q, want f1", hooked.FactID)
	}
	if hooked.CreatedAt.IsZero() {
		t.Error("hook must see the finalized fact, created_at included")
	}

	var n int
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM projection WHERE fact_id = 'f1'`).Scan(&n); err != nil {
		t.Fatalf("count projection: %v", err)
	}
	if n != 1 {
		t.Errorf("projection rows = %d, want 1", n)
	}
}

func TestAppendThen_HookFailureRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	hookErr := errors.New("derived state write failed")
	_, err := s.AppendThen(ctx, testFact("f1", 1), func(tx *sql.Tx, f entity.Fact) error {
		return hookErr
	})
	if !errors.Is(err, hookErr) {
		t.Fatalf("AppendThen() err = %v, want wrapped hook error", err)
	}

	// The fact row rolled back with the hook.
	if _, ok, err := s.Get(ctx, "f1"); err != nil || ok {
		t.Errorf("Get() after rollback = %v, %v; want miss", ok, err)
	}

	// The sequence is intact: version 1 appends cleanly afterwards.
	if _, err := s.Append(ctx, testFact("f1", 1)); err != nil {
		t.Fatalf("Append() after rollback failed: %v", err)
	}
}

func TestAppendStatus_BumpsVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, testFact("f1", 1)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	next, err := s.AppendStatus(ctx, "f1", entity.StatusAccepted)
	if err != nil {
		t.Fatalf("AppendStatus() failed: %v", err)
	}
	if next.Version != 2 {
		t.Errorf("Version = %d, want 2", next.Version)
	}
	if next.Status != entity.StatusAccepted {
		t.Errorf("Status = %q, want accepted", next.Status)
	}

	// The original version is still retrievable.
	v1, ok, err := s.GetVersion(ctx, "f1", 1)
	if err != nil || !ok {
		t.Fatalf("GetVersion(1) = %v, %v", ok, err)
	}
	if v1.Status != entity.StatusProposed {
		t.Errorf("v1 status = %q, want proposed (versions are immutable)", v1.Status)
	}
}

func TestAppendStatus_UnknownFact(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.AppendStatus(context.Background(), "missing", entity.StatusAccepted); err == nil {
		t.Error("AppendStatus() on unknown fact should fail")
	}
}

func TestAppendStatus_InvalidStatus(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.AppendStatus(context.Background(), "f1", "bogus"); err == nil {
		t.Error("AppendStatus() should reject unknown statuses")
	}
}
