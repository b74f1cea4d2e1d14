package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/roach88/lineage/internal/entity"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFact(sc scanner) (entity.Fact, error) {
	var f entity.Fact
	var kind, status, createdAt string
	err := sc.Scan(&f.FactID, &f.Version, &kind, &f.Fingerprint, &f.Statement, &status, &f.Provenance, &createdAt)
	if err != nil {
		return entity.Fact{}, err
	}
	f.Kind = entity.Kind(kind)
	f.Status = entity.Status(status)
	f.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return entity.Fact{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return f, nil
}

const factColumns = `fact_id, version, kind, fingerprint, statement, status, provenance, created_at`

// Get returns the latest version of factID, or ok=false if the fact has
// never been appended.
func (s *Store) Get(ctx context.Context, factID string) (entity.Fact, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+factColumns+` FROM facts
		WHERE fact_id = ?
		ORDER BY version DESC
		LIMIT 1
	`, factID)

	f, err := scanFact(row)
	if err == sql.ErrNoRows {
		return entity.Fact{}, false, nil
	}
	if err != nil {
		return entity.Fact{}, false, fmt.Errorf("get fact %s: %w", factID, err)
	}
	return f, true, nil
}

// GetVersion returns one specific version of a fact.
func (s *Store) GetVersion(ctx context.Context, factID string, version int) (entity.Fact, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+factColumns+` FROM facts
		WHERE fact_id = ? AND version = ?
	`, factID, version)

	f, err := scanFact(row)
	if err == sql.ErrNoRows {
		return entity.Fact{}, false, nil
	}
	if err != nil {
		return entity.Fact{}, false, fmt.Errorf("get fact %s v%d: %w", factID, version, err)
	}
	return f, true, nil
}

// AllVersions returns every version of a fact in ascending order.
func (s *Store) AllVersions(ctx context.Context, factID string) ([]entity.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+factColumns+` FROM facts
		WHERE fact_id = ?
		ORDER BY version ASC
	`, factID)
	if err != nil {
		return nil, fmt.Errorf("all versions of %s: %w", factID, err)
	}
	defer rows.Close()

	var facts []entity.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return facts, nil
}

// LatestVersion returns the highest version number for factID, or 0 if
// the fact does not exist.
func (s *Store) LatestVersion(ctx context.Context, factID string) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM facts WHERE fact_id = ?
	`, factID).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("latest version of %s: %w", factID, err)
	}
	return v, nil
}

// IterFacts returns a lazy, restartable sequence over the latest version
// of every fact, optionally filtered by status. Each range over the
// sequence runs a fresh query, so re-iterating yields the same facts for
// a given storage snapshot. Ordering is fact_id ascending for
// determinism.
func (s *Store) IterFacts(ctx context.Context, statusFilter entity.Status) iter.Seq2[entity.Fact, error] {
	return func(yield func(entity.Fact, error) bool) {
		query := `
			SELECT ` + factColumns + ` FROM facts f
			WHERE version = (SELECT MAX(version) FROM facts WHERE fact_id = f.fact_id)
		`
		args := []any{}
		if statusFilter != "" {
			query += ` AND status = ?`
			args = append(args, string(statusFilter))
		}
		query += ` ORDER BY fact_id ASC`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(entity.Fact{}, fmt.Errorf("iterate facts: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			f, err := scanFact(rows)
			if err != nil {
				yield(entity.Fact{}, fmt.Errorf("scan fact: %w", err))
				return
			}
			if !yield(f, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(entity.Fact{}, fmt.Errorf("iterate facts: %w", err))
		}
	}
}

// AllFactRows returns every row of the ledger (all versions) ordered by
// fact_id then version. Used by projection rebuild.
func (s *Store) AllFactRows(ctx context.Context) ([]entity.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+factColumns+` FROM facts
		ORDER BY fact_id ASC, version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	defer rows.Close()

	var facts []entity.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return facts, nil
}
