// Package orchestrator runs the receipt pipeline end to end: open a mailbox
// session, read every rule, close the session and build the daily ledger.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArionMiles/grabledger/pkg/api"
	"github.com/ArionMiles/grabledger/pkg/ledger"
	"github.com/ArionMiles/grabledger/pkg/logging"
	"github.com/ArionMiles/grabledger/pkg/mailbox"
	"github.com/ArionMiles/grabledger/pkg/metrics"
	"github.com/ArionMiles/grabledger/pkg/reader/grab"
)

// Opener acquires a fresh session for one run.
type Opener func(ctx context.Context) (api.Session, error)

// IMAPOpener opens an IMAP session per run.
func IMAPOpener(cfg mailbox.Config, logger *slog.Logger) Opener {
	return func(ctx context.Context) (api.Session, error) {
		s, err := mailbox.Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// MboxOpener replays the mbox file at path on every run.
func MboxOpener(path string, logger *slog.Logger) Opener {
	return func(context.Context) (api.Session, error) {
		s, err := mailbox.OpenMbox(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Config configures an Orchestrator.
type Config struct {
	// Rules are read in order. Defaults to grab.DefaultRules().
	Rules []api.Rule
}

// Result is the outcome of a successful run.
type Result struct {
	RunID  string
	Bike   []api.CategoryRecord
	Food   []api.CategoryRecord
	Ledger []api.LedgerRow
}

// Orchestrator runs the pipeline. It is safe for concurrent use; every run
// opens its own session.
type Orchestrator struct {
	open    Opener
	rules   []api.Rule
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Orchestrator. m may be nil.
func New(open Opener, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = grab.DefaultRules()
	}
	return &Orchestrator{
		open:    open,
		rules:   rules,
		metrics: m,
		logger:  logger.With("component", "orchestrator"),
	}
}

// Run executes one pipeline run. The session is closed whether or not
// reading succeeds, and the first failure aborts the run with no result.
func (o *Orchestrator) Run(ctx context.Context) (res *Result, err error) {
	logger, runID := logging.WithRun(o.logger)
	start := time.Now()
	logger.Info("run started", "rules", len(o.rules))

	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusError
			logger.Error("run failed", "error", err, "duration", time.Since(start))
		}
		o.metrics.RecordRun(status, time.Since(start))
	}()

	sess, err := o.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("closing session", "error", cerr)
		}
	}()

	reader := grab.New(o.metrics, logger)
	records := make(map[api.Category][]api.CategoryRecord, 2)
	for _, rule := range o.rules {
		recs, err := reader.ReadRule(sess, rule)
		if err != nil {
			return nil, err
		}
		records[rule.Category] = append(records[rule.Category], recs...)
	}

	res = &Result{
		RunID: runID,
		Bike:  records[api.CategoryBike],
		Food:  records[api.CategoryFood],
	}
	res.Ledger = ledger.Build(res.Bike, res.Food)
	o.metrics.SetLedgerRows(len(res.Ledger))

	logger.Info("run finished",
		"bike_records", len(res.Bike),
		"food_records", len(res.Food),
		"ledger_rows", len(res.Ledger),
		"duration", time.Since(start),
	)
	return res, nil
}

// Load runs the pipeline and returns only the ledger.
func (o *Orchestrator) Load(ctx context.Context) ([]api.LedgerRow, error) {
	res, err := o.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Ledger, nil
}
