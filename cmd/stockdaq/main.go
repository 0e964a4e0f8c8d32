package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"stockdaq/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&makeSymbolListCmd{}, "")
	commander.Register(&updateCmd{}, "")
	commander.Register(&catCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
