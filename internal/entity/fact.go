package entity

import (
	"fmt"
	"time"
)

// Status is the review state of a fact version.
type Status string

const (
	StatusProposed   Status = "proposed"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusIncomplete Status = "incomplete"
)

// ValidStatuses enumerates the allowed fact statuses.
var ValidStatuses = map[Status]bool{
	StatusProposed:   true,
	StatusAccepted:   true,
	StatusRejected:   true,
	StatusIncomplete: true,
}

// Fact is one immutable version of a research statement. A status change
// never rewrites a version; it appends the next version with the updated
// status and everything else copied.
type Fact struct {
	FactID      string    `json:"fact_id"`
	Version     int       `json:"version"` // starts at 1, contiguous per fact_id
	Kind        Kind      `json:"kind"`
	Fingerprint string    `json:"fingerprint"`
	Statement   string    `json:"statement"`  // canonical JSON of the entity
	Status      Status    `json:"status"`
	Provenance  string    `json:"provenance,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Key returns the human-readable ledger key "{fact_id}:{version}".
func (f Fact) Key() string {
	return fmt.Sprintf("%s:%d", f.FactID, f.Version)
}

// Validate checks structural invariants before a fact reaches the ledger.
func (f Fact) Validate() error {
	if f.FactID == "" {
		return fmt.Errorf("fact_id is required")
	}
	if f.Version < 1 {
		return fmt.Errorf("version must be >= 1 (got %d)", f.Version)
	}
	if !ValidStatuses[f.Status] {
		return fmt.Errorf("invalid status %q", f.Status)
	}
	if len(f.Fingerprint) != 64 {
		return fmt.Errorf("fingerprint must be a 64-hex-char digest (got %d chars)", len(f.Fingerprint))
	}
	return nil
}
