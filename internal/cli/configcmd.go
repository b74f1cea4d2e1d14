package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/lineage/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect effective configuration",
	}
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration after defaults, file, and environment",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(rootOpts, cmd)
		},
	}
	return cmd
}

func runConfigShow(opts *RootOptions, cmd *cobra.Command) error {
	f := formatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		f.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		f.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	if opts.Format == "json" {
		return f.Success(cfg)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "render config", err)
	}
	_, err = f.Writer.Write(out)
	return err
}
