package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/grabledger/pkg/config"
	"github.com/ArionMiles/grabledger/pkg/metrics"
	"github.com/ArionMiles/grabledger/pkg/orchestrator"
	"github.com/ArionMiles/grabledger/pkg/server"
)

type serveOptions struct {
	addr string
	mbox string
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report over HTTP",
		Long: `Serve GET /v1/report, /healthz and /metrics on LISTEN_ADDR until SIGINT or
SIGTERM. Every report request runs the pipeline on its own connection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, slog.Default())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "listen address (default LISTEN_ADDR)")
	f.StringVar(&opts.mbox, "mbox", "", "replay this mbox file instead of connecting to IMAP")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	addr := cfg.ListenAddr
	if opts.addr != "" {
		addr = opts.addr
	}

	open, err := newOpener(opts.mbox, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	o := orchestrator.New(open, orchestrator.Config{}, m, logger)

	logger.Info("starting grabledger server", "addr", addr)
	if err := server.Serve(ctx, addr, server.NewRouter(o, m, logger), logger); err != nil {
		return err
	}
	logger.Info("grabledger server stopped")
	return nil
}
