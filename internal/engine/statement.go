package engine

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/lineage/internal/canonical"
)

// statementJSON renders an entity as canonical JSON for the ledger's
// statement column. Canonical form keeps statements byte-stable across
// runs, so ledger diffs and projection search text never churn on map
// ordering.
func statementJSON(e any) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode statement: %w", err)
	}
	v, err := canonical.Unmarshal(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize statement: %w", err)
	}
	b, err := canonical.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize statement: %w", err)
	}
	return string(b), nil
}
