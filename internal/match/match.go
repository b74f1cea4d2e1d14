// Package match ships the reference MatchProvider: a deterministic
// token-overlap scorer over the projection's search text. It exists so
// the engine runs end to end without an external matching service; the
// score contract (0-100, higher is more similar) is the only part the
// decision engine depends on, and production deployments are expected
// to plug in something stronger.
package match

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/lineage/internal/decision"
	"github.com/roach88/lineage/internal/entity"
)

// IndexMatcher scores candidates against projected facts of the same
// kind using the Sorensen-Dice coefficient over token sets.
type IndexMatcher struct {
	db *sql.DB
}

// New wraps the shared ledger database handle.
func New(db *sql.DB) *IndexMatcher {
	return &IndexMatcher{db: db}
}

// FindBest returns the strongest same-kind candidate scoring at or
// above threshold. Ties break toward the lexically smallest handle so
// results are stable across runs.
func (m *IndexMatcher) FindBest(ctx context.Context, kind entity.Kind, searchText string, threshold int) (decision.Match, bool, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT fact_id, search_text FROM projection
		WHERE kind = ?
		ORDER BY fact_id ASC
	`, string(kind))
	if err != nil {
		return decision.Match{}, false, fmt.Errorf("match scan: %w", err)
	}
	defer rows.Close()

	candidate := tokens(searchText)
	best := decision.Match{Score: -1}

	for rows.Next() {
		var handle, text string
		if err := rows.Scan(&handle, &text); err != nil {
			return decision.Match{}, false, fmt.Errorf("match scan: %w", err)
		}
		score := dice(candidate, tokens(text))
		if score > best.Score {
			best = decision.Match{Handle: handle, Score: score, Summary: text}
		}
	}
	if err := rows.Err(); err != nil {
		return decision.Match{}, false, fmt.Errorf("match scan: %w", err)
	}

	if best.Score < threshold {
		return decision.Match{}, false, nil
	}
	return best, true, nil
}

func tokens(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// dice computes the Sorensen-Dice coefficient of two token sets on a
// 0-100 scale.
func dice(a, b map[string]bool) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if b[tok] {
			shared++
		}
	}
	return (200 * shared) / (len(a) + len(b))
}
