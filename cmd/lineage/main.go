// Command lineage is the CLI entry point for the fact upsert engine.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/lineage/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands emit their own structured errors before returning
		// an ExitError; only print errors that never reached a
		// formatter (flag parsing, unknown subcommands).
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
