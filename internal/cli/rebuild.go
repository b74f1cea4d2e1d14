package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RebuildReport summarizes a projection rebuild.
type RebuildReport struct {
	Facts int `json:"facts"`
}

func (r RebuildReport) String() string {
	return fmt.Sprintf("projection rebuilt from %d fact(s)", r.Facts)
}

// NewRebuildCommand creates the rebuild command. The projection is
// derived state; rebuilding replays the ledger from scratch and is the
// recovery path after corruption or a crash mid-apply.
func NewRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rebuild",
		Short:         "Rebuild the projection index from the ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebuild(rootOpts, cmd)
		},
	}
	return cmd
}

func runRebuild(opts *RootOptions, cmd *cobra.Command) error {
	f := formatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := openApp(opts)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.index.Rebuild(ctx, a.store); err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "rebuild projection", err)
	}

	n, err := a.store.Count(ctx)
	if err != nil {
		f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "count facts", err)
	}
	return f.Success(RebuildReport{Facts: n})
}
