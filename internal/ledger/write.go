package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/lineage/internal/entity"
)

// TxHook runs inside an append transaction after the fact row is
// inserted and before commit. A non-nil error rolls the whole append
// back, so derived state maintained by the hook can never drift ahead
// of or behind the ledger.
type TxHook func(tx *sql.Tx, f entity.Fact) error

// SequenceError reports an append whose version does not continue the
// fact's contiguous sequence. Callers should re-read the latest version
// and retry with the correct successor; blind retries will fail again.
type SequenceError struct {
	FactID string
	Got    int
	Want   int
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("out-of-sequence append for fact %s: got version %d, want %d", e.FactID, e.Got, e.Want)
}

// IsSequenceError reports whether err is an out-of-sequence append,
// unwrapping as needed.
func IsSequenceError(err error) bool {
	var se *SequenceError
	return errors.As(err, &se)
}

// Append inserts one immutable fact version and returns its ledger key
// "{fact_id}:{version}". The version check and the insert run in one
// transaction, so concurrent appenders cannot interleave versions for
// the same fact_id.
func (s *Store) Append(ctx context.Context, f entity.Fact) (string, error) {
	return s.AppendThen(ctx, f, nil)
}

// AppendThen is Append with a hook that commits atomically with the
// fact row. Projection maintenance uses it so an appended fact and its
// index entry are visible together or not at all.
func (s *Store) AppendThen(ctx context.Context, f entity.Fact, then TxHook) (string, error) {
	if err := f.Validate(); err != nil {
		return "", fmt.Errorf("append fact: %w", err)
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("append fact: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var latest int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM facts WHERE fact_id = ?
	`, f.FactID).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("append fact: read latest version: %w", err)
	}

	if f.Version != latest+1 {
		return "", &SequenceError{FactID: f.FactID, Got: f.Version, Want: latest + 1}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO facts
		(fact_id, version, kind, fingerprint, statement, status, provenance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		f.FactID,
		f.Version,
		string(f.Kind),
		f.Fingerprint,
		f.Statement,
		string(f.Status),
		f.Provenance,
		f.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("append fact: insert: %w", err)
	}

	if then != nil {
		if err := then(tx, f); err != nil {
			return "", fmt.Errorf("append fact: hook: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("append fact: commit: %w", err)
	}

	return f.Key(), nil
}

// AppendStatus appends a new version of factID carrying newStatus, with
// every other field copied from the latest version. Returns the new
// fact version. The prior version remains retrievable.
func (s *Store) AppendStatus(ctx context.Context, factID string, newStatus entity.Status) (entity.Fact, error) {
	return s.AppendStatusThen(ctx, factID, newStatus, nil)
}

// AppendStatusThen is AppendStatus with a hook committing atomically
// with the new version row.
func (s *Store) AppendStatusThen(ctx context.Context, factID string, newStatus entity.Status, then TxHook) (entity.Fact, error) {
	if !entity.ValidStatuses[newStatus] {
		return entity.Fact{}, fmt.Errorf("append status: invalid status %q", newStatus)
	}

	latest, ok, err := s.Get(ctx, factID)
	if err != nil {
		return entity.Fact{}, fmt.Errorf("append status: %w", err)
	}
	if !ok {
		return entity.Fact{}, fmt.Errorf("append status: fact %s not found", factID)
	}

	next := latest
	next.Version = latest.Version + 1
	next.Status = newStatus
	next.CreatedAt = time.Now().UTC()

	if _, err := s.AppendThen(ctx, next, then); err != nil {
		return entity.Fact{}, err
	}
	return next, nil
}
