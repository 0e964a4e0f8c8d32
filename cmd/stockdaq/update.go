package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"stockdaq/internal/app"
)

type updateCmd struct {
	config    string
	getConfig bool
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "download stock data and update the database" }
func (*updateCmd) Usage() string {
	return `stockdaq update [-config <config.yaml>] | -get-config

  Downloads every symbol of the stock list from the configured APIs, in
  preference order, and merges the bars into the partition files under
  rootdir. With rolling: true the update repeats on its schedule until
  interrupted.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "config.yaml", "Path of the configuration file.")
	f.BoolVar(&c.getConfig, "get-config", false, "Write a sample configuration to -config and exit.")
}

func (c *updateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.getConfig {
		if err := app.WriteSampleConfig(c.config); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("sample configuration written to %s\n", c.config)
		return subcommands.ExitSuccess
	}

	a, cleanup, err := InitializeApp(ctx, app.ConfigPath(c.config))
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	slog.Info("got symbols", "count", len(a.Symbols), "apis", a.Config.APIList, "frequency", a.Config.Frequency, "rootdir", a.Config.RootDir)
	if err := app.RunFlow(ctx, a.Config, a.Acquirer, a.Symbols); err != nil {
		slog.Error("database update failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
