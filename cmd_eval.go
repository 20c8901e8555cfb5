package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"filterexpr/filter"
)

type evalCmd struct {
	jsonFile string
}

func (*evalCmd) Name() string     { return "eval" }
func (*evalCmd) Synopsis() string { return "evaluate an expression against a JSON file" }
func (*evalCmd) Usage() string {
	return `eval -json <file> <expression>:
  Compile <expression> and run it against the JSON object in <file>,
  printing 'true' or 'false'.
`
}
func (e *evalCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.jsonFile, "json", "", "path to a JSON file holding the record to evaluate against")
}

func (e *evalCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 no expression provided")
		return subcommands.ExitUsageError
	}
	if e.jsonFile == "" {
		fmt.Fprintln(os.Stderr, "💥 -json <file> is required")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(e.jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read %s: %v\n", e.jsonFile, err)
		return subcommands.ExitFailure
	}

	prog, err := filter.Compile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println(prog.Run(data))
	return subcommands.ExitSuccess
}
