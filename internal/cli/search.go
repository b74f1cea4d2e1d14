package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/entity"
	"github.com/roach88/lineage/internal/projection"
)

// SearchHit renders one projection entry for search output.
type SearchHit struct {
	projection.Entry
}

func (h SearchHit) String() string {
	return fmt.Sprintf("%s v%d %-12s %s", h.FactID, h.Version, h.Kind, h.Status)
}

// NewSearchCommand creates the search command over the projection.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:           "search <terms...>",
		Short:         "Search current facts by normalized text",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, status, strings.Join(args, " "), cmd)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (proposed|accepted|rejected|incomplete)")
	return cmd
}

func runSearch(opts *RootOptions, status, query string, cmd *cobra.Command) error {
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

	hits, err := a.index.Search(cmd.Context(), entity.Status(status), query)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "search", err)
	}

	f.VerboseLog("%d hit(s)", len(hits))
	for _, e := range hits {
		if err := f.Success(SearchHit{Entry: e}); err != nil {
			return err
		}
	}
	return nil
}
