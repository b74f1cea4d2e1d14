package cli

import (
	"io"

	"github.com/roach88/lineage/internal/config"
	"github.com/roach88/lineage/internal/decision"
	"github.com/roach88/lineage/internal/engine"
	"github.com/roach88/lineage/internal/ledger"
	"github.com/roach88/lineage/internal/match"
	"github.com/roach88/lineage/internal/projection"
	"github.com/roach88/lineage/internal/schema"
)

// app bundles the wired components behind a command invocation.
type app struct {
	cfg      config.Config
	store    *ledger.Store
	index    *projection.Index
	upserter *engine.Upserter
}

// openApp loads configuration, opens the ledger, and wires the engine
// with the reference matcher. Callers must Close.
func openApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	store, err := ledger.Open(opts.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open ledger", err)
	}

	validator, err := schema.New()
	if err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "compile entity schema", err)
	}

	index := projection.New(store.DB())
	matcher := match.New(store.DB())
	decider := decision.New(cfg, index, matcher)
	upserter := engine.New(cfg, validator, decider, store, index)

	return &app{
		cfg:      cfg,
		store:    store,
		index:    index,
		upserter: upserter,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// formatter builds the output formatter for a command from the global
// options and cobra's configured streams.
func formatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}
