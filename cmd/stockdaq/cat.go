package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"stockdaq/internal/saver"
)

type catCmd struct {
	format string
}

func (*catCmd) Name() string     { return "cat" }
func (*catCmd) Synopsis() string { return "print a stored partition file as CSV" }
func (*catCmd) Usage() string {
	return `stockdaq cat [-format hdf5|csv|parquet|json] <file>...
`
}

func (c *catCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "Format of the files (default: from the extension).")
}

func (c *catCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	for _, path := range f.Args() {
		format := saver.Format(c.format)
		if format == "" {
			var err error
			if format, err = saver.FormatOf(path); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
		}
		t, err := saver.Load(path, format)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if err := saver.EncodeCSV(os.Stdout, t); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
