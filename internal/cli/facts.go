package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/entity"
)

// FactSummary is the list-view rendering of a fact.
type FactSummary struct {
	FactID  string        `json:"fact_id"`
	Version int           `json:"version"`
	Kind    entity.Kind   `json:"kind"`
	Status  entity.Status `json:"status"`
}

func (s FactSummary) String() string {
	return fmt.Sprintf("%s v%d %-12s %s", s.FactID, s.Version, s.Kind, s.Status)
}

// FactDetail is the show-view rendering, including every version.
type FactDetail struct {
	Latest   entity.Fact   `json:"latest"`
	Versions []entity.Fact `json:"versions"`
}

func (d FactDetail) String() string {
	s := fmt.Sprintf("fact %s (latest v%d, %s, %s)\n", d.Latest.FactID, d.Latest.Version, d.Latest.Kind, d.Latest.Status)
	s += fmt.Sprintf("fingerprint %s\n", d.Latest.Fingerprint)
	if d.Latest.Provenance != "" {
		s += fmt.Sprintf("provenance  %s\n", d.Latest.Provenance)
	}
	s += fmt.Sprintf("statement   %s\n", d.Latest.Statement)
	for _, v := range d.Versions {
		s += fmt.Sprintf("  v%d %s %s\n", v.Version, v.Status, v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return s
}

// NewFactsCommand creates the facts command group.
func NewFactsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Inspect the fact ledger",
	}
	cmd.AddCommand(newFactsListCommand(rootOpts))
	cmd.AddCommand(newFactsShowCommand(rootOpts))
	return cmd
}

func newFactsListCommand(rootOpts *RootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the latest version of every fact",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFactsList(rootOpts, status, cmd)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (proposed|accepted|rejected|incomplete)")
	return cmd
}

func runFactsList(opts *RootOptions, status string, cmd *cobra.Command) error {
	f := formatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if status != "" && !entity.ValidStatuses[entity.Status(status)] {
		f.Error(ErrCodeInput, fmt.Sprintf("unknown status %q", status), nil)
		return NewExitError(ExitCommandError, "unknown status")
	}

	a, err := openApp(opts)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer a.Close()

	n := 0
	for fact, err := range a.store.IterFacts(cmd.Context(), entity.Status(status)) {
		if err != nil {
			f.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "list facts", err)
		}
		n++
		if err := f.Success(FactSummary{
			FactID:  fact.FactID,
			Version: fact.Version,
			Kind:    fact.Kind,
			Status:  fact.Status,
		}); err != nil {
			return err
		}
	}
	f.VerboseLog("%d fact(s)", n)
	return nil
}

func newFactsShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <fact-id>",
		Short:         "Show a fact with its full version history",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFactsShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runFactsShow(opts *RootOptions, factID string, cmd *cobra.Command) error {
	f := formatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := openApp(opts)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	latest, ok, err := a.store.Get(ctx, factID)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "show fact", err)
	}
	if !ok {
		f.Error(ErrCodeNotFound, fmt.Sprintf("no fact %q", factID), nil)
		return NewExitError(ExitFailure, "fact not found")
	}

	versions, err := a.store.AllVersions(ctx, factID)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "show fact", err)
	}

	return f.Success(FactDetail{Latest: latest, Versions: versions})
}
