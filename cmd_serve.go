package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"filterexpr/internal/config"
	"filterexpr/internal/httpserve"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP filter-evaluation demo server" }
func (*serveCmd) Usage() string {
	return `serve:
  Start an HTTP server exposing POST /filter and GET /metrics,
  configured from config.yaml (or $FILTEREXPR_CONFIG).
`
}
func (s *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.addr, "addr", "", "override the configured listen address")
}

func (s *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	addr := cfg.Server.Addr
	if s.addr != "" {
		addr = s.addr
	}

	srv := httpserve.New(addr, cfg.Limits.MaxExpressionBytes, cfg.Limits.MaxJSONBytes)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
