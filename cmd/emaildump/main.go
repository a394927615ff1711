// Command emaildump copies the messages each receipt rule matches into an
// mbox file. The dump can be replayed with 'grabledger run --mbox' and is used
// to collect samples for tests.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/grabledger/pkg/api"
	"github.com/ArionMiles/grabledger/pkg/config"
	"github.com/ArionMiles/grabledger/pkg/logging"
	"github.com/ArionMiles/grabledger/pkg/mailbox"
	"github.com/ArionMiles/grabledger/pkg/reader/grab"
)

const defaultOut = "testdata/dump.mbox"

type options struct {
	out   string
	limit int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		slog.Error("email dump failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:           "emaildump",
		Short:         "Dump Grab e-receipts from the mailbox into an mbox file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup(logging.DefaultConfig())

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger.Info("configuration loaded", "config", cfg)

			s, err := mailbox.Open(cmd.Context(), cfg.Session(), logger)
			if err != nil {
				return err
			}
			defer s.Close()

			return dumpToFile(s, grab.DefaultRules(), opts, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.out, "out", defaultOut, "mbox file to write")
	f.IntVar(&opts.limit, "limit", 10, "maximum messages per rule, 0 for all")

	return cmd
}

func dumpToFile(src api.Source, rules []api.Rule, opts options, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(opts.out), 0o755); err != nil {
		return fmt.Errorf("creating dump directory: %w", err)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	defer f.Close()

	w := mailbox.NewWriter(f)
	total := dump(src, rules, w, opts.limit, logger)
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing mbox: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing dump file: %w", err)
	}

	logger.Info("email dump complete", "total_dumped", total, "file", opts.out)
	return nil
}

// dump writes up to limit matches per rule. A failing rule or message is
// logged and skipped.
func dump(src api.Source, rules []api.Rule, w *mailbox.Writer, limit int, logger *slog.Logger) int {
	total := 0
	for _, rule := range rules {
		logger.Info("processing rule", "name", rule.Name, "category", rule.Category)

		count, err := dumpRule(src, rule, w, limit, logger)
		if err != nil {
			logger.Error("failed to dump messages for rule", "rule", rule.Name, "error", err)
			continue
		}

		logger.Info("dumped messages for rule", "rule", rule.Name, "count", count)
		total += count
	}
	return total
}

func dumpRule(src api.Source, rule api.Rule, w *mailbox.Writer, limit int, logger *slog.Logger) (int, error) {
	uids, err := src.Search(rule.Criteria)
	if err != nil {
		return 0, err
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[:limit]
	}

	count := 0
	for _, uid := range uids {
		raw, err := src.Fetch(uid)
		if err != nil {
			logger.Warn("failed to fetch message", "uid", uid, "error", err)
			continue
		}
		if err := w.Append(raw); err != nil {
			return count, err
		}
		logger.Debug("dumped message", "uid", uid, "bytes", len(raw.Literal))
		count++
	}
	return count, nil
}
