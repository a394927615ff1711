package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/grabledger/pkg/orchestrator"
	"github.com/ArionMiles/grabledger/pkg/report"
	csvwriter "github.com/ArionMiles/grabledger/pkg/writer/csv"
	jsonwriter "github.com/ArionMiles/grabledger/pkg/writer/json"
	textwriter "github.com/ArionMiles/grabledger/pkg/writer/text"
)

type runOptions struct {
	start  string
	end    string
	format string
	mbox   string
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the ledger once and print the report",
		Long: `Run the pipeline once and print the report for [start, end] to stdout.
Missing bounds default to the first and last day with a receipt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), opts, slog.Default())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.start, "start", "", "first day of the report, YYYY-MM-DD")
	f.StringVar(&opts.end, "end", "", "last day of the report, YYYY-MM-DD")
	f.StringVar(&opts.format, "format", "text", "output format: text, csv or json")
	f.StringVar(&opts.mbox, "mbox", "", "replay this mbox file instead of connecting to IMAP")

	return cmd
}

func runReport(ctx context.Context, out io.Writer, opts runOptions, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	write, err := reportWriter(opts.format, out, logger)
	if err != nil {
		return err
	}

	start, err := parseBound(opts.start)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := parseBound(opts.end)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	open, err := newOpener(opts.mbox, logger)
	if err != nil {
		return err
	}

	rows, err := orchestrator.New(open, orchestrator.Config{}, nil, logger).Load(ctx)
	if err != nil {
		return err
	}

	start, end = report.Resolve(rows, start, end)
	return write(report.Build(rows, start, end))
}

// reportWriter returns the Write method of the writer for format.
func reportWriter(format string, out io.Writer, logger *slog.Logger) (func(report.Report) error, error) {
	switch format {
	case "text":
		return textwriter.New(out, logger).Write, nil
	case "csv":
		return csvwriter.New(out, logger).Write, nil
	case "json":
		return jsonwriter.New(out, jsonwriter.Config{Indent: true}, logger).Write, nil
	default:
		return nil, fmt.Errorf("unsupported format %q: want text, csv or json", format)
	}
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return report.ParseDate(s)
}
