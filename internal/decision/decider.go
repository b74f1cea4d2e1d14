package decision

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/lineage/internal/config"
	"github.com/roach88/lineage/internal/entity"
	"github.com/roach88/lineage/internal/fingerprint"
	"github.com/roach88/lineage/internal/normalize"
)

// Decider combines fingerprint lookup and fuzzy match score into one
// upsert decision. It holds no mutable state and is safe for concurrent
// use.
type Decider struct {
	cfg     config.Config
	proj    ProjectionStore
	matcher MatchProvider
}

// New constructs a Decider. Configuration is an explicit value, not a
// package global; two deciders with different configs can coexist.
func New(cfg config.Config, proj ProjectionStore, matcher MatchProvider) *Decider {
	return &Decider{cfg: cfg, proj: proj, matcher: matcher}
}

// DecidePerson decides the upsert action for a person candidate.
// Timeline validation runs first and takes precedence over any
// merge/create outcome.
func (d *Decider) DecidePerson(ctx context.Context, p entity.Person) (Outcome, error) {
	fp := fingerprint.Person(p)
	summary := personSummary(p)
	if reason := d.checkTimeline(p); reason != "" {
		return Outcome{
			Action:           ActionBlock,
			Fingerprint:      fp,
			Reason:           reason,
			CandidateSummary: summary,
		}, nil
	}
	weak := p.Birth.YearOnly() || p.Death.YearOnly()
	return d.decide(ctx, fp, personSearchText(p), summary, weak)
}

// DecideEvent decides the upsert action for an event candidate.
func (d *Decider) DecideEvent(ctx context.Context, e entity.Event) (Outcome, error) {
	fp := fingerprint.Event(e)
	text := joinNormalized(e.Type, e.PersonID, e.Date.Canonical(), e.Place, e.Detail)
	return d.decide(ctx, fp, text, text, e.Date.YearOnly())
}

// DecideSource decides the upsert action for a source record candidate.
func (d *Decider) DecideSource(ctx context.Context, s entity.SourceRecord) (Outcome, error) {
	fp := fingerprint.Source(s)
	text := joinNormalized(s.Title, s.Author, s.Repository, s.Reference)
	return d.decide(ctx, fp, text, text, false)
}

// DecideCitation decides the upsert action for a citation candidate.
func (d *Decider) DecideCitation(ctx context.Context, c entity.Citation) (Outcome, error) {
	fp := fingerprint.Citation(c)
	text := joinNormalized(c.SourceID, c.Page, c.Date.Canonical(), c.Text)
	return d.decide(ctx, fp, text, text, false)
}

// DecidePlace decides the upsert action for a place candidate.
func (d *Decider) DecidePlace(ctx context.Context, p entity.Place) (Outcome, error) {
	fp := fingerprint.Place(p)
	text := joinNormalized(p.Name, p.Jurisdiction, p.Country)
	return d.decide(ctx, fp, text, text, false)
}

// DecideRelationship decides the upsert action for a relationship
// candidate. Relationship identity is structural (kind + endpoints), so
// fuzzy matching adds nothing: the outcome is reuse or create.
func (d *Decider) DecideRelationship(ctx context.Context, r entity.Relationship) (Outcome, error) {
	fp := fingerprint.Relationship(r)
	handle, ok, err := d.proj.HandleByFingerprint(ctx, fp.Value)
	if err != nil {
		return Outcome{}, fmt.Errorf("decide relationship: %w", err)
	}
	if ok {
		return Outcome{Action: ActionReuse, Score: 1.0, Fingerprint: fp, ExistingHandle: handle}, nil
	}
	return Outcome{Action: ActionCreate, Fingerprint: fp}, nil
}

// decide runs the shared decision core. Exact fingerprint hits short
// circuit before any fuzzy comparison; that path is O(1) and performs no
// scoring.
func (d *Decider) decide(ctx context.Context, fp fingerprint.Fingerprint, searchText, summary string, weakEvidence bool) (Outcome, error) {
	handle, ok, err := d.proj.HandleByFingerprint(ctx, fp.Value)
	if err != nil {
		return Outcome{}, fmt.Errorf("fingerprint lookup: %w", err)
	}
	if ok {
		return Outcome{Action: ActionReuse, Score: 1.0, Fingerprint: fp, ExistingHandle: handle}, nil
	}

	match, found, err := d.matcher.FindBest(ctx, fp.Kind, searchText, fuzzyThreshold)
	if err != nil {
		return Outcome{}, fmt.Errorf("match lookup: %w", err)
	}
	if !found {
		return Outcome{Action: ActionCreate, Score: 0.0, Fingerprint: fp}, nil
	}

	score := float64(match.Score) / 100.0
	effective := d.cfg.MergeThreshold
	if weakEvidence {
		// Thin evidence (vital dates known only to year) raises the bar
		// for automatic merging.
		effective += d.cfg.WeakEvidenceMargin
	}

	if score >= effective {
		return Outcome{
			Action:         ActionMerge,
			Score:          score,
			Fingerprint:    fp,
			ExistingHandle: match.Handle,
		}, nil
	}

	// The review band widens upward with the effective threshold: a
	// score too weak to merge under raised evidence requirements must
	// not fall through to create, or weak evidence would produce MORE
	// duplicates instead of fewer.
	reviewHigh := d.cfg.ReviewHigh
	if effective > reviewHigh {
		reviewHigh = effective
	}
	if score >= d.cfg.ReviewLow && score < reviewHigh {
		return Outcome{
			Action:           ActionReview,
			Score:            score,
			Fingerprint:      fp,
			ExistingHandle:   match.Handle,
			Reason:           "Probable duplicate",
			CandidateSummary: summary,
			ExistingSummary:  match.Summary,
		}, nil
	}

	return Outcome{Action: ActionCreate, Score: score, Fingerprint: fp}, nil
}

func personSearchText(p entity.Person) string {
	return joinNormalized(p.GivenNames, p.Surname, p.Birth.Canonical(), p.Death.Canonical(), p.BirthPlace)
}

func personSummary(p entity.Person) string {
	return fmt.Sprintf("%s %s (b. %s, d. %s)", p.GivenNames, p.Surname, p.Birth, p.Death)
}

// joinNormalized builds the matcher search text from normalized fields,
// skipping empties so padding differences cannot skew scores.
func joinNormalized(fields ...string) string {
	var parts []string
	for _, f := range fields {
		if n := normalize.Text(f); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}
