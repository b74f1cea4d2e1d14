package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/entity"
)

// StatusReport is the result of a status transition.
type StatusReport struct {
	FactID  string        `json:"fact_id"`
	Version int           `json:"version"`
	Status  entity.Status `json:"status"`
}

func (r StatusReport) String() string {
	return fmt.Sprintf("%s now %s at v%d", r.FactID, r.Status, r.Version)
}

// NewStatusCommand creates the status command. Status changes are
// append-only: the command writes a new version rather than mutating
// the existing row.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status <fact-id> <proposed|accepted|rejected|incomplete>",
		Short:         "Append a status change to a fact",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, args[0], entity.Status(args[1]), cmd)
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, factID string, status entity.Status, cmd *cobra.Command) error {
	f := formatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if !entity.ValidStatuses[status] {
		f.Error(ErrCodeInput, fmt.Sprintf("unknown status %q", status), nil)
		return NewExitError(ExitCommandError, "unknown status")
	}

	a, err := openApp(opts)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer a.Close()

	fact, err := a.upserter.SetStatus(cmd.Context(), factID, status)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitFailure, "set status", err)
	}

	return f.Success(StatusReport{
		FactID:  fact.FactID,
		Version: fact.Version,
		Status:  fact.Status,
	})
}
