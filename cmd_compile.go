package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"filterexpr/compiler"
)

type compileCmd struct{}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "compile an expression and print its postfix program" }
func (*compileCmd) Usage() string {
	return `compile <expression>:
  Compile <expression> and print its disassembled postfix program, or
  a compile error and the byte offset it occurred at.
`
}
func (*compileCmd) SetFlags(f *flag.FlagSet) {}

func (*compileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	expr := strings.Join(f.Args(), " ")
	if expr == "" {
		fmt.Fprintln(os.Stderr, "💥 no expression provided")
		return subcommands.ExitUsageError
	}

	prog, err := compiler.Compile([]byte(expr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Print(prog.String())
	return subcommands.ExitSuccess
}
