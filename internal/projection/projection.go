// Package projection maintains the read-optimized secondary index over
// the fact ledger: exact fingerprint -> handle lookups, status filters,
// and free-text search.
//
// The index is a cache, never the source of truth. Every row is derived
// from the ledger and Rebuild reconstructs the whole index by replaying
// the facts table from scratch, which is the recovery path for any
// corruption or missed apply.
package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/lineage/internal/entity"
	"github.com/roach88/lineage/internal/ledger"
	"github.com/roach88/lineage/internal/normalize"
)

// Index is the synchronously-maintained projection over the ledger. It
// shares the ledger's database (see ledger/schema.sql for its tables).
type Index struct {
	db *sql.DB
}

// New wraps the shared database handle.
func New(db *sql.DB) *Index {
	return &Index{db: db}
}

// Entry is one projected fact row.
type Entry struct {
	FactID      string        `json:"fact_id"`
	Version     int           `json:"version"`
	Kind        entity.Kind   `json:"kind"`
	Status      entity.Status `json:"status"`
	Fingerprint string        `json:"fingerprint"`
}

// execer is satisfied by both *sql.DB and *sql.Tx, so Apply can run
// standalone or inside a ledger append transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply folds one appended fact into the index: the projection row
// advances to the new latest version and the fact's fingerprint maps to
// its handle. Idempotent; re-applying the same fact is a no-op.
func (ix *Index) Apply(ctx context.Context, f entity.Fact) error {
	return ix.applyOn(ctx, ix.db, f)
}

// ApplyTx is Apply running inside an open transaction, letting a ledger
// append and its index entry commit together.
func (ix *Index) ApplyTx(ctx context.Context, tx *sql.Tx, f entity.Fact) error {
	return ix.applyOn(ctx, tx, f)
}

func (ix *Index) applyOn(ctx context.Context, db execer, f entity.Fact) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO projection (fact_id, version, kind, status, fingerprint, search_text)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fact_id) DO UPDATE SET
			version = excluded.version,
			kind = excluded.kind,
			status = excluded.status,
			fingerprint = excluded.fingerprint,
			search_text = excluded.search_text
		WHERE excluded.version >= projection.version
	`,
		f.FactID,
		f.Version,
		string(f.Kind),
		string(f.Status),
		f.Fingerprint,
		normalize.Text(f.Statement),
	)
	if err != nil {
		return fmt.Errorf("apply projection for %s: %w", f.Key(), err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO fingerprints (fingerprint, handle)
		VALUES (?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, f.Fingerprint, f.FactID)
	if err != nil {
		return fmt.Errorf("set fingerprint handle: %w", err)
	}
	return nil
}

// HandleByFingerprint returns the ledger handle recorded for an exact
// fingerprint, or ok=false on a miss. O(1) via the primary key.
func (ix *Index) HandleByFingerprint(ctx context.Context, fp string) (string, bool, error) {
	var handle string
	err := ix.db.QueryRowContext(ctx, `
		SELECT handle FROM fingerprints WHERE fingerprint = ?
	`, fp).Scan(&handle)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fingerprint lookup: %w", err)
	}
	return handle, true, nil
}

// SetHandleForFingerprint records a fingerprint -> handle mapping. The
// first writer wins; a fingerprint never remaps to a different handle,
// which is what makes repeated upserts converge on one record.
func (ix *Index) SetHandleForFingerprint(ctx context.Context, fp, handle string) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO fingerprints (fingerprint, handle)
		VALUES (?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, fp, handle)
	if err != nil {
		return fmt.Errorf("set fingerprint handle: %w", err)
	}
	return nil
}

// Search returns projected facts matching an optional status filter and
// an optional free-text query over the normalized statement text.
// Results are ordered by fact_id for determinism.
func (ix *Index) Search(ctx context.Context, status entity.Status, query string) ([]Entry, error) {
	sqlText := `
		SELECT fact_id, version, kind, status, fingerprint FROM projection
		WHERE 1=1
	`
	var args []any
	if status != "" {
		sqlText += ` AND status = ?`
		args = append(args, string(status))
	}
	if query != "" {
		sqlText += ` AND search_text LIKE ?`
		args = append(args, "%"+normalize.Text(query)+"%")
	}
	sqlText += ` ORDER BY fact_id ASC`

	rows, err := ix.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("search projection: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind, st string
		if err := rows.Scan(&e.FactID, &e.Version, &kind, &st, &e.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan projection entry: %w", err)
		}
		e.Kind = entity.Kind(kind)
		e.Status = entity.Status(st)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projection: %w", err)
	}
	return entries, nil
}

// Rebuild reconstructs the entire index by replaying the ledger from
// scratch. Used after corruption or a crash between a ledger append and
// its projection apply.
func (ix *Index) Rebuild(ctx context.Context, store *ledger.Store) error {
	facts, err := store.AllFactRows(ctx)
	if err != nil {
		return fmt.Errorf("rebuild projection: %w", err)
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rebuild projection: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM projection`); err != nil {
		return fmt.Errorf("rebuild projection: clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fingerprints`); err != nil {
		return fmt.Errorf("rebuild projection: clear fingerprints: %w", err)
	}

	// Rows arrive ordered by (fact_id, version), so the last write per
	// fact_id is its latest version, matching incremental Apply.
	for _, f := range facts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projection (fact_id, version, kind, status, fingerprint, search_text)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(fact_id) DO UPDATE SET
				version = excluded.version,
				kind = excluded.kind,
				status = excluded.status,
				fingerprint = excluded.fingerprint,
				search_text = excluded.search_text
		`, f.FactID, f.Version, string(f.Kind), string(f.Status), f.Fingerprint, normalize.Text(f.Statement)); err != nil {
			return fmt.Errorf("rebuild projection: apply %s: %w", f.Key(), err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fingerprints (fingerprint, handle)
			VALUES (?, ?)
			ON CONFLICT(fingerprint) DO NOTHING
		`, f.Fingerprint, f.FactID); err != nil {
			return fmt.Errorf("rebuild projection: fingerprint for %s: %w", f.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rebuild projection: commit: %w", err)
	}
	return nil
}
