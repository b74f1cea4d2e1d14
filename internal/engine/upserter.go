package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/lineage/internal/config"
	"github.com/roach88/lineage/internal/decision"
	"github.com/roach88/lineage/internal/entity"
	"github.com/roach88/lineage/internal/fingerprint"
	"github.com/roach88/lineage/internal/ledger"
	"github.com/roach88/lineage/internal/projection"
	"github.com/roach88/lineage/internal/schema"
)

// lockStripes is the size of the striped mutex table. Collisions only
// cost unnecessary serialization, never correctness.
const lockStripes = 64

// InvalidEntityError reports schema validation failure for a candidate.
// Deterministic; not retried.
type InvalidEntityError struct {
	Kind   entity.Kind
	Errors []string
}

func (e *InvalidEntityError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(e.Errors, "; "))
}

// IsInvalidEntity reports whether err is a schema validation failure.
func IsInvalidEntity(err error) bool {
	var ie *InvalidEntityError
	return errors.As(err, &ie)
}

// Result is the outcome of one upsert attempt. Handle is set whenever
// the entity now maps onto a ledger record (reuse, merge, create);
// review and block outcomes leave it empty.
type Result struct {
	Outcome decision.Outcome `json:"outcome"`
	Handle  string           `json:"handle,omitempty"`
	Key     string           `json:"key,omitempty"` // ledger key when a fact was appended
}

// Upserter performs idempotent entity upserts against the ledger.
type Upserter struct {
	cfg       config.Config
	validator *schema.Validator
	decider   *decision.Decider
	store     *ledger.Store
	index     *projection.Index

	locks [lockStripes]sync.Mutex
}

// New wires an upserter. The decider must be backed by the same
// projection index passed here, or exact-hit lookups and handle writes
// would disagree.
func New(cfg config.Config, validator *schema.Validator, decider *decision.Decider, store *ledger.Store, index *projection.Index) *Upserter {
	return &Upserter{
		cfg:       cfg,
		validator: validator,
		decider:   decider,
		store:     store,
		index:     index,
	}
}

func (u *Upserter) lockFor(fp string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(fp))
	return &u.locks[h.Sum32()%lockStripes]
}

// UpsertPerson validates, decides, and applies the decision for a
// person candidate.
func (u *Upserter) UpsertPerson(ctx context.Context, p entity.Person, provenance string) (Result, error) {
	if res := u.validator.ValidatePerson(p); !res.Valid {
		return Result{}, &InvalidEntityError{Kind: entity.KindPerson, Errors: res.Errors}
	}
	fp := fingerprint.Person(p)
	return u.apply(ctx, fp, p, provenance, func(ctx context.Context) (decision.Outcome, error) {
		return u.decider.DecidePerson(ctx, p)
	})
}

// UpsertEvent validates, decides, and applies the decision for an event
// candidate.
func (u *Upserter) UpsertEvent(ctx context.Context, e entity.Event, provenance string) (Result, error) {
	if res := u.validator.ValidateEvent(e); !res.Valid {
		return Result{}, &InvalidEntityError{Kind: entity.KindEvent, Errors: res.Errors}
	}
	fp := fingerprint.Event(e)
	return u.apply(ctx, fp, e, provenance, func(ctx context.Context) (decision.Outcome, error) {
		return u.decider.DecideEvent(ctx, e)
	})
}

// UpsertSource validates, decides, and applies the decision for a
// source record candidate.
func (u *Upserter) UpsertSource(ctx context.Context, s entity.SourceRecord, provenance string) (Result, error) {
	if res := u.validator.ValidateSource(s); !res.Valid {
		return Result{}, &InvalidEntityError{Kind: entity.KindSource, Errors: res.Errors}
	}
	fp := fingerprint.Source(s)
	return u.apply(ctx, fp, s, provenance, func(ctx context.Context) (decision.Outcome, error) {
		return u.decider.DecideSource(ctx, s)
	})
}

// UpsertCitation validates, decides, and applies the decision for a
// citation candidate.
func (u *Upserter) UpsertCitation(ctx context.Context, c entity.Citation, provenance string) (Result, error) {
	if res := u.validator.ValidateCitation(c); !res.Valid {
		return Result{}, &InvalidEntityError{Kind: entity.KindCitation, Errors: res.Errors}
	}
	fp := fingerprint.Citation(c)
	return u.apply(ctx, fp, c, provenance, func(ctx context.Context) (decision.Outcome, error) {
		return u.decider.DecideCitation(ctx, c)
	})
}

// UpsertPlace validates, decides, and applies the decision for a place
// candidate.
func (u *Upserter) UpsertPlace(ctx context.Context, p entity.Place, provenance string) (Result, error) {
	if res := u.validator.ValidatePlace(p); !res.Valid {
		return Result{}, &InvalidEntityError{Kind: entity.KindPlace, Errors: res.Errors}
	}
	fp := fingerprint.Place(p)
	return u.apply(ctx, fp, p, provenance, func(ctx context.Context) (decision.Outcome, error) {
		return u.decider.DecidePlace(ctx, p)
	})
}

// UpsertRelationship validates, decides, and applies the decision for a
// relationship candidate. Parent/child relationships additionally pass
// the parent-age bounds check when both endpoints resolve to person
// facts with known birth years.
func (u *Upserter) UpsertRelationship(ctx context.Context, r entity.Relationship, provenance string) (Result, error) {
	if res := u.validator.ValidateRelationship(r); !res.Valid {
		return Result{}, &InvalidEntityError{Kind: entity.KindRelationship, Errors: res.Errors}
	}
	fp := fingerprint.Relationship(r)

	reason, err := u.checkParentChild(ctx, r)
	if err != nil {
		return Result{}, err
	}
	if reason != "" {
		return Result{Outcome: decision.Outcome{
			Action:      decision.ActionBlock,
			Fingerprint: fp,
			Reason:      reason,
		}}, nil
	}

	return u.apply(ctx, fp, r, provenance, func(ctx context.Context) (decision.Outcome, error) {
		return u.decider.DecideRelationship(ctx, r)
	})
}

// checkParentChild enforces parent-age bounds for parent_of/child_of
// relationships. Endpoints that do not resolve to person facts skip the
// check: absence of evidence is not a violation.
func (u *Upserter) checkParentChild(ctx context.Context, r entity.Relationship) (string, error) {
	var parentID, childID string
	switch r.Kind {
	case entity.RelParentOf:
		parentID, childID = r.From, r.To
	case entity.RelChildOf:
		parentID, childID = r.To, r.From
	default:
		return "", nil
	}

	parent, ok, err := u.personByHandle(ctx, parentID)
	if err != nil || !ok {
		return "", err
	}
	child, ok, err := u.personByHandle(ctx, childID)
	if err != nil || !ok {
		return "", err
	}
	return u.decider.ValidateParentChild(parent, child), nil
}

// personByHandle resolves a ledger handle to the person in its latest
// statement. Unknown handles and non-person facts report ok=false.
func (u *Upserter) personByHandle(ctx context.Context, handle string) (entity.Person, bool, error) {
	fact, ok, err := u.store.Get(ctx, handle)
	if err != nil {
		return entity.Person{}, false, fmt.Errorf("resolve person %s: %w", handle, err)
	}
	if !ok || fact.Kind != entity.KindPerson {
		return entity.Person{}, false, nil
	}
	var p entity.Person
	if err := json.Unmarshal([]byte(fact.Statement), &p); err != nil {
		return entity.Person{}, false, fmt.Errorf("decode person %s: %w", handle, err)
	}
	return p, true, nil
}

// apply serializes on the candidate's fingerprint, decides, and acts on
// the outcome. The lock covers decide-then-write, so two concurrent
// upserts of the same entity cannot both miss the exact-hit path and
// double-create.
func (u *Upserter) apply(ctx context.Context, fp fingerprint.Fingerprint, e any, provenance string, decide func(context.Context) (decision.Outcome, error)) (Result, error) {
	mu := u.lockFor(fp.Value)
	mu.Lock()
	defer mu.Unlock()

	outcome, err := decide(ctx)
	if err != nil {
		return Result{}, err
	}

	switch outcome.Action {
	case decision.ActionReuse:
		return Result{Outcome: outcome, Handle: outcome.ExistingHandle}, nil

	case decision.ActionMerge:
		// Record the candidate's fingerprint against the surviving
		// handle so the next identical candidate takes the O(1) path.
		if err := u.index.SetHandleForFingerprint(ctx, fp.Value, outcome.ExistingHandle); err != nil {
			return Result{}, fmt.Errorf("upsert merge: %w", err)
		}
		return Result{Outcome: outcome, Handle: outcome.ExistingHandle}, nil

	case decision.ActionReview, decision.ActionBlock:
		// No writes on the automatic path; a human adjudicates.
		return Result{Outcome: outcome}, nil

	case decision.ActionCreate:
		statement, err := statementJSON(e)
		if err != nil {
			return Result{}, err
		}
		fact := entity.Fact{
			FactID:      uuid.NewString(),
			Version:     1,
			Kind:        fp.Kind,
			Fingerprint: fp.Value,
			Statement:   statement,
			Status:      entity.StatusProposed,
			Provenance:  provenance,
		}
		// The fact row and its projection entry commit together; a
		// crash can never leave the index behind the ledger.
		key, err := u.store.AppendThen(ctx, fact, func(tx *sql.Tx, f entity.Fact) error {
			return u.index.ApplyTx(ctx, tx, f)
		})
		if err != nil {
			return Result{}, fmt.Errorf("upsert create: %w", err)
		}
		return Result{Outcome: outcome, Handle: fact.FactID, Key: key}, nil

	default:
		return Result{}, fmt.Errorf("unknown decision action %q", outcome.Action)
	}
}

// SetStatus appends a new version of a fact with an updated status and
// folds it into the projection.
func (u *Upserter) SetStatus(ctx context.Context, factID string, status entity.Status) (entity.Fact, error) {
	mu := u.lockFor(factID)
	mu.Lock()
	defer mu.Unlock()

	fact, err := u.store.AppendStatusThen(ctx, factID, status, func(tx *sql.Tx, f entity.Fact) error {
		return u.index.ApplyTx(ctx, tx, f)
	})
	if err != nil {
		return entity.Fact{}, err
	}
	return fact, nil
}
