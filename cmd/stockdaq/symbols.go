package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"stockdaq/internal/app"
	"stockdaq/internal/symbol"
)

type makeSymbolListCmd struct {
	input       string
	output      string
	noOverwrite bool
	omit        string
	noHeader    bool
	symbolIndex int
}

func (*makeSymbolListCmd) Name() string { return "make-symbol-list" }
func (*makeSymbolListCmd) Synopsis() string {
	return "make a stock symbol list from a company list CSV"
}
func (*makeSymbolListCmd) Usage() string {
	return `stockdaq make-symbol-list -i <companylist.csv> [-o <stocklist.txt>] [-omit "^,."]

  Extracts the Symbol column of a NASDAQ style company list, sorts it and
  drops symbols containing any omitted character.
`
}

func (c *makeSymbolListCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "companylist.csv", "Path of the company list CSV.")
	f.StringVar(&c.output, "o", "stocklist.txt", "Path of the symbol list to write.")
	f.BoolVar(&c.noOverwrite, "no-overwrite", false, "Fail if the output file exists.")
	f.StringVar(&c.omit, "omit", "^,.", "Comma separated characters; symbols containing any of them are dropped.")
	f.BoolVar(&c.noHeader, "no-header", false, "The CSV has no header row; use -index.")
	f.IntVar(&c.symbolIndex, "index", 0, "Column of the symbols when -no-header is set.")
}

func (c *makeSymbolListCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	omit := app.SplitList(c.omit)
	if omit == nil {
		omit = []string{}
	}
	symbols, err := symbol.MakeSymbolList(c.input, c.output, symbol.MakeOptions{
		Overwrite:   !c.noOverwrite,
		Omit:        omit,
		HasHeader:   !c.noHeader,
		SymbolIndex: c.symbolIndex,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d symbols written to %s\n", len(symbols), c.output)
	return subcommands.ExitSuccess
}
