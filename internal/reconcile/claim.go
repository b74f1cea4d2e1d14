package reconcile

import (
	"context"
	"errors"
	"fmt"
)

// ValueKind tags the encoding of a claim value.
type ValueKind string

const (
	ValueString   ValueKind = "string"
	ValueEntity   ValueKind = "entity"
	ValueTime     ValueKind = "time"
	ValueQuantity ValueKind = "quantity"
	ValueURL      ValueKind = "url"
)

// ClaimValue is one typed claim value. Only the fields relevant to Kind
// are set; everything else stays zero.
type ClaimValue struct {
	Kind ValueKind `json:"kind"`

	// Text carries string values and entity ids.
	Text string `json:"text,omitempty"`

	// Time is a calendar date in "YYYY", "YYYY-MM" or "YYYY-MM-DD" form;
	// Precision (9=year, 10=month, 11=day) bounds how much of it counts.
	Time      string `json:"time,omitempty"`
	Precision int    `json:"precision,omitempty"`

	// Amount/Unit carry quantity values. Amount is a decimal string;
	// floats never appear in canonical forms.
	Amount string `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`

	// URL carries reference URLs.
	URL string `json:"url,omitempty"`
}

// Snak is a (property, value) pair used for qualifiers and references.
type Snak struct {
	Property string     `json:"property"`
	Value    ClaimValue `json:"value"`
}

// Claim is a candidate statement about an external entity.
type Claim struct {
	EntityID   string     `json:"entity_id"`
	Property   string     `json:"property"`
	Value      ClaimValue `json:"value"`
	Qualifiers []Snak     `json:"qualifiers,omitempty"`
	References []Snak     `json:"references,omitempty"`
}

// ExternalClaim is a claim as reported by the external store, with its
// store-assigned id.
type ExternalClaim struct {
	ID    string `json:"id"`
	Claim Claim  `json:"claim"`
}

// ClaimClient is the consumed capability contract for the external
// mutable store. Implementations perform real network I/O; the
// reconciler never talks to the network except through this interface.
type ClaimClient interface {
	GetClaims(ctx context.Context, entityID, property string) ([]ExternalClaim, error)
	AddClaim(ctx context.Context, c Claim) (string, error)
}

// ValidationError reports a malformed claim. Surfaced immediately;
// never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid claim: %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a claim validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientError marks a network failure that the circuit breaker is
// allowed to absorb. Anything else escalates immediately.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient network failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
