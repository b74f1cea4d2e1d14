package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/engine"
	"github.com/roach88/lineage/internal/entity"
)

// Candidate is the wire form of one entity to upsert.
type Candidate struct {
	Kind       entity.Kind     `json:"kind"`
	Provenance string          `json:"provenance,omitempty"`
	Entity     json.RawMessage `json:"entity"`
}

// UpsertReport summarizes the outcome of one candidate.
type UpsertReport struct {
	Kind   entity.Kind   `json:"kind"`
	Result engine.Result `json:"result"`
}

func (r UpsertReport) String() string {
	out := r.Result.Outcome
	s := fmt.Sprintf("%s: %s (score %.2f)", r.Kind, out.Action, out.Score)
	if r.Result.Handle != "" {
		s += " handle=" + r.Result.Handle
	}
	if out.Reason != "" {
		s += " reason=" + out.Reason
	}
	return s
}

// NewUpsertCommand creates the upsert command.
func NewUpsertCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upsert [file]",
		Short: "Upsert entities from a JSON file or stdin",
		Long: `Read candidates from a JSON file (or stdin when no file is given) and
upsert each one. Input is either a single candidate object or an array:

  {"kind": "person", "provenance": "census-1901", "entity": {...}}

Exit code is 1 if any candidate was blocked, queued for review, or
failed validation.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runUpsert(rootOpts, path, cmd)
		},
	}
	return cmd
}

func runUpsert(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := formatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	candidates, err := readCandidates(path, cmd.InOrStdin())
	if err != nil {
		f.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read candidates", err)
	}
	f.VerboseLog("Read %d candidate(s)", len(candidates))

	a, err := openApp(opts)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	reports := make([]UpsertReport, 0, len(candidates))
	clean := true

	for i, c := range candidates {
		res, err := upsertOne(ctx, a, c)
		if err != nil {
			if engine.IsInvalidEntity(err) {
				f.Error(ErrCodeInvalid, fmt.Sprintf("candidate %d: %v", i, err), nil)
				clean = false
				continue
			}
			f.Error(ErrCodeDatabase, fmt.Sprintf("candidate %d: %v", i, err), nil)
			return WrapExitError(ExitCommandError, "upsert", err)
		}
		if res.Outcome.Terminal() {
			clean = false
		}
		reports = append(reports, UpsertReport{Kind: c.Kind, Result: res})
	}

	for _, r := range reports {
		if err := f.Success(r); err != nil {
			return err
		}
	}
	if !clean {
		return NewExitError(ExitFailure, "one or more candidates did not resolve to a handle")
	}
	return nil
}

func upsertOne(ctx context.Context, a *app, c Candidate) (engine.Result, error) {
	switch c.Kind {
	case entity.KindPerson:
		var p entity.Person
		if err := json.Unmarshal(c.Entity, &p); err != nil {
			return engine.Result{}, fmt.Errorf("decode person: %w", err)
		}
		return a.upserter.UpsertPerson(ctx, p, c.Provenance)
	case entity.KindEvent:
		var e entity.Event
		if err := json.Unmarshal(c.Entity, &e); err != nil {
			return engine.Result{}, fmt.Errorf("decode event: %w", err)
		}
		return a.upserter.UpsertEvent(ctx, e, c.Provenance)
	case entity.KindSource:
		var s entity.SourceRecord
		if err := json.Unmarshal(c.Entity, &s); err != nil {
			return engine.Result{}, fmt.Errorf("decode source: %w", err)
		}
		return a.upserter.UpsertSource(ctx, s, c.Provenance)
	case entity.KindCitation:
		var ci entity.Citation
		if err := json.Unmarshal(c.Entity, &ci); err != nil {
			return engine.Result{}, fmt.Errorf("decode citation: %w", err)
		}
		return a.upserter.UpsertCitation(ctx, ci, c.Provenance)
	case entity.KindPlace:
		var pl entity.Place
		if err := json.Unmarshal(c.Entity, &pl); err != nil {
			return engine.Result{}, fmt.Errorf("decode place: %w", err)
		}
		return a.upserter.UpsertPlace(ctx, pl, c.Provenance)
	case entity.KindRelationship:
		var r entity.Relationship
		if err := json.Unmarshal(c.Entity, &r); err != nil {
			return engine.Result{}, fmt.Errorf("decode relationship: %w", err)
		}
		return a.upserter.UpsertRelationship(ctx, r, c.Provenance)
	default:
		return engine.Result{}, fmt.Errorf("unknown kind %q", c.Kind)
	}
}

// readCandidates accepts a single candidate object or an array of them.
func readCandidates(path string, stdin io.Reader) ([]Candidate, error) {
	var raw []byte
	var err error
	if path == "" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var many []Candidate
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one Candidate
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("input is neither a candidate nor a candidate array: %w", err)
	}
	return []Candidate{one}, nil
}
