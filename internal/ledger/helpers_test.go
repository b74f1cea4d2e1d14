package ledger

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/lineage/internal/entity"
)

// openTestStore creates a fresh on-disk store in a temp dir.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testFact builds a fact with a synthetic 64-char fingerprint.
func testFact(factID string, version int) entity.Fact {
	fp := strings.Repeat("0", 64-len(factID)) + factID
	return entity.Fact{
		FactID:      factID,
		Version:     version,
		Kind:        entity.KindPerson,
		Fingerprint: fp,
		Statement:   `{"given_names":"John","surname":"Smith"}`,
		Status:      entity.StatusProposed,
		Provenance:  "test",
	}
}
