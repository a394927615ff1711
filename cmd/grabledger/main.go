// Command grabledger reads Grab e-receipts from a mailbox and reports daily
// spending on rides and food.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/grabledger/pkg/config"
	"github.com/ArionMiles/grabledger/pkg/logging"
	"github.com/ArionMiles/grabledger/pkg/orchestrator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grabledger",
		Short: "Daily ledger of Grab ride and food receipts",
		Long: `grabledger searches a mailbox for Grab e-receipts, extracts the amount
paid from each one and aggregates them into a daily ledger.

Credentials are read from MAIL_ACCOUNT and MAIL_PASSCODE, optionally seeded
from a .env file in the working directory.

Examples:
  grabledger status                                  # check configuration and mailbox access
  grabledger run --start 2023-08-01 --end 2023-08-31 # print a report
  grabledger run --mbox testdata/dump.mbox           # replay an mbox export
  grabledger serve                                   # serve the report over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.DefaultConfig())
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newStatusCmd())
	return root
}

// newOpener returns an mbox replay when mboxPath is set, otherwise an IMAP
// opener built from the environment.
func newOpener(mboxPath string, logger *slog.Logger) (orchestrator.Opener, error) {
	if mboxPath != "" {
		logger.Info("replaying mbox", "path", mboxPath)
		return orchestrator.MboxOpener(mboxPath, logger), nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Info("configuration loaded", "config", cfg)

	return orchestrator.IMAPOpener(cfg.Session(), logger), nil
}
