package decision

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/entity"
	"github.com/roach88/lineage/internal/fingerprint"
)

// Action is the terminal state of an upsert decision.
type Action string

const (
	ActionReuse  Action = "reuse"  // exact fingerprint hit
	ActionMerge  Action = "merge"  // fuzzy score cleared the merge threshold
	ActionReview Action = "review" // score in the review band; human adjudication
	ActionCreate Action = "create" // no exact hit, no strong match
	ActionBlock  Action = "block"  // fatal domain violation, never automatic
)

// Outcome is the tagged result of a decision. Callers match on Action
// exhaustively instead of catching an exception-shaped error.
type Outcome struct {
	Action         Action                  `json:"action"`
	Score          float64                 `json:"score"` // normalized [0,1]
	Fingerprint    fingerprint.Fingerprint `json:"fingerprint"`
	ExistingHandle string                  `json:"existing_handle,omitempty"`
	Reason         string                  `json:"reason,omitempty"`

	// Summaries aid a reviewer when Action is review or block.
	CandidateSummary string `json:"candidate_summary,omitempty"`
	ExistingSummary  string `json:"existing_summary,omitempty"`
}

// Terminal reports whether the outcome requires no further automatic
// processing (review and block both stop the automatic path).
func (o Outcome) Terminal() bool {
	return o.Action == ActionReview || o.Action == ActionBlock
}

func (o Outcome) String() string {
	switch o.Action {
	case ActionReuse, ActionMerge:
		return fmt.Sprintf("%s -> %s (score %.2f)", o.Action, o.ExistingHandle, o.Score)
	case ActionReview, ActionBlock:
		return fmt.Sprintf("%s: %s (score %.2f)", o.Action, o.Reason, o.Score)
	default:
		return string(o.Action)
	}
}

// Match is one fuzzy candidate returned by a MatchProvider. Score is on
// the provider's native 0-100 scale.
type Match struct {
	Handle  string
	Score   int
	Summary string
}

// MatchProvider is the pluggable fuzzy-matching capability. FindBest
// returns the strongest candidate at or above threshold (0-100), or
// ok=false when nothing qualifies. The scoring algorithm is the
// provider's business; only the score contract is fixed here.
type MatchProvider interface {
	FindBest(ctx context.Context, kind entity.Kind, searchText string, threshold int) (Match, bool, error)
}

// ProjectionStore is the read capability the decider needs from the
// projection index: exact fingerprint lookup.
type ProjectionStore interface {
	HandleByFingerprint(ctx context.Context, fp string) (string, bool, error)
}

// fuzzyThreshold is the provider-side floor (0-100) for candidate
// retrieval. Anything weaker is noise the decider never sees.
const fuzzyThreshold = 50
