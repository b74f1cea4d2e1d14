// Package lease implements advisory per-fact leases with TTL expiry.
//
// The engine's correctness assumes a single logical writer per fact_id.
// Leases make that assumption explicit and recoverable: a writer
// acquires a lease before a long-running research task, renews it on
// progress, and a crashed writer's lease is stolen once its TTL lapses.
// Leases are advisory only; the ledger's version sequencing remains the
// final arbiter against interleaved appends.
package lease

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrHeld is returned when another owner holds an unexpired lease.
var ErrHeld = errors.New("lease held by another owner")

// timeLayout is fixed-width so that stored expiry strings compare
// correctly inside SQL. RFC3339Nano trims trailing zeros and would
// break lexicographic ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Manager grants leases out of the shared ledger database.
type Manager struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time // injectable for tests
}

// NewManager creates a lease manager with the configured default TTL
// (config lock_ttl_seconds).
func NewManager(db *sql.DB, ttl time.Duration) *Manager {
	return &Manager{db: db, ttl: ttl, now: time.Now}
}

// Acquire grants owner a lease on factID. Succeeds when no lease
// exists, when the existing lease already belongs to owner (re-entrant,
// refreshing the TTL), or when the existing lease has expired
// (steal-on-expiry). Otherwise returns ErrHeld.
func (m *Manager) Acquire(ctx context.Context, factID, owner string) error {
	if factID == "" || owner == "" {
		return fmt.Errorf("acquire lease: fact id and owner are required")
	}

	now := m.now().UTC()
	expires := now.Add(m.ttl).Format(timeLayout)

	res, err := m.db.ExecContext(ctx, `
		INSERT INTO leases (fact_id, owner, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fact_id) DO UPDATE SET
			owner = excluded.owner,
			expires_at = excluded.expires_at
		WHERE leases.owner = excluded.owner OR leases.expires_at < ?
	`, factID, owner, expires, now.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("acquire lease: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquire lease: rows affected: %w", err)
	}
	if n == 0 {
		return ErrHeld
	}
	return nil
}

// Renew extends owner's lease. Fails if the lease is gone or owned by
// someone else (it may have been stolen after expiry).
func (m *Manager) Renew(ctx context.Context, factID, owner string) error {
	expires := m.now().UTC().Add(m.ttl).Format(timeLayout)
	res, err := m.db.ExecContext(ctx, `
		UPDATE leases SET expires_at = ? WHERE fact_id = ? AND owner = ?
	`, expires, factID, owner)
	if err != nil {
		return fmt.Errorf("renew lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("renew lease: rows affected: %w", err)
	}
	if n == 0 {
		return ErrHeld
	}
	return nil
}

// Release drops owner's lease. Releasing a lease not held is a no-op.
func (m *Manager) Release(ctx context.Context, factID, owner string) error {
	_, err := m.db.ExecContext(ctx, `
		DELETE FROM leases WHERE fact_id = ? AND owner = ?
	`, factID, owner)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

// Holder reports the current owner of a lease, if any unexpired lease
// exists.
func (m *Manager) Holder(ctx context.Context, factID string) (string, bool, error) {
	var owner, expiresAt string
	err := m.db.QueryRowContext(ctx, `
		SELECT owner, expires_at FROM leases WHERE fact_id = ?
	`, factID).Scan(&owner, &expiresAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lease holder: %w", err)
	}

	expires, err := time.Parse(timeLayout, expiresAt)
	if err != nil {
		return "", false, fmt.Errorf("lease holder: parse expiry: %w", err)
	}
	if m.now().UTC().After(expires) {
		return "", false, nil
	}
	return owner, true, nil
}
