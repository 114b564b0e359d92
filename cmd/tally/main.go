// Package main implements the CLI to run the vote contract on a local host.
//
//  tally instantiate --sender admin --deadline height:123111
//  tally vote --sender alice --choice yes
//  tally query
//  tally --mode multi --db boxes.db create --sender bob --owner bob\
//    --deadline time:2026-12-31T00:00:00Z
//
// A .env file in the working directory is loaded first so that it can set the
// TALLY_* variables.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"go.dedis.ch/tally"
	"go.dedis.ch/tally/cli"
	"go.dedis.ch/tally/cli/ucli"
	"go.dedis.ch/tally/contracts/vote"
	"go.dedis.ch/tally/contracts/vote/controller"
	"go.dedis.ch/tally/core/execution/native"
	"go.dedis.ch/tally/core/host"
	"go.dedis.ch/tally/core/store/kv"
	"golang.org/x/xerrors"
)

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		tally.Logger.Warn().Err(err).Msg("failed to load .env file")
	}

	err = run(os.Args, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	builder := ucli.NewBuilder("tally", nil, globalFlags()...)

	controller.NewController(openEnv, out).SetCommands(builder)

	return builder.Build().Run(args)
}

// openEnv opens the database and the host described by the configuration.
func openEnv(flags cli.Flags) (controller.Env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return controller.Env{}, xerrors.Errorf("failed to load config: %v", err)
	}

	opts, err := cfg.options()
	if err != nil {
		return controller.Env{}, xerrors.Errorf("invalid config: %v", err)
	}

	ctx, err := cfg.context()
	if err != nil {
		return controller.Env{}, xerrors.Errorf("invalid config: %v", err)
	}

	contract := vote.NewContract(opts...)

	exec := native.NewExecution()
	vote.RegisterContract(exec, contract)

	db, err := kv.Open(kv.Engine(cfg.Engine), cfg.DB)
	if err != nil {
		return controller.Env{}, xerrors.Errorf("failed to open db: %v", err)
	}

	h, err := host.NewHost(db, exec, host.WithGenesisHeight(cfg.GenesisHeight))
	if err != nil {
		db.Close()
		return controller.Env{}, xerrors.Errorf("failed to create host: %v", err)
	}

	closeEnv := func() error {
		err := db.Close()
		if err != nil {
			return xerrors.Errorf("failed to close db: %v", err)
		}

		if cfg.Metrics != "" {
			return writeMetrics(cfg.Metrics)
		}

		return nil
	}

	env := controller.Env{
		Client:  h,
		Context: ctx,
		Mode:    contract.GetMode(),
		Close:   closeEnv,
	}

	return env, nil
}
