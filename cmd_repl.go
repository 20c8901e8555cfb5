package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"filterexpr/filter"
)

// replCmd is an interactive session: one line compiles the expression, every
// line after that is a JSON record to try it against, until 'expr' resets
// back to expression mode or 'exit' ends the session.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "interactively compile an expression and run it against JSON records" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive session. Type an expression first; once it
  compiles, paste JSON objects one per line to see whether each one
  matches. Type 'expr' alone to pick a new expression, 'exit' to quit.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "expr> ",
		HistoryFile: os.TempDir() + "/filterexpr_history",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	var prog *filter.Program
	for {
		line, err := rl.Readline()
		if err != nil {
			return subcommands.ExitSuccess
		}

		switch line {
		case "":
			continue
		case "exit":
			return subcommands.ExitSuccess
		case "expr":
			prog = nil
			rl.SetPrompt("expr> ")
			continue
		}

		if prog == nil {
			p, err := filter.Compile(line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "💥 %v\n", err)
				continue
			}
			prog = p
			rl.SetPrompt("json> ")
			continue
		}

		fmt.Println(prog.Run([]byte(line)))
	}
}
