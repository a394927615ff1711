// Package text implements a Writer that renders a report as an aligned
// table followed by the summary figures.
package text

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/ArionMiles/grabledger/pkg/report"
)

// Writer writes a human readable report.
type Writer struct {
	out    io.Writer
	logger *slog.Logger
}

// New creates a text writer on w.
func New(w io.Writer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		out:    w,
		logger: logger.With("component", "text_writer"),
	}
}

// Write renders the rows and summary of r.
func (w *Writer) Write(r report.Report) error {
	if _, err := fmt.Fprintf(w.out, "Transactions %s to %s\n\n", r.Start, r.End); err != nil {
		return fmt.Errorf("writing title: %w", err)
	}

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "no.\tdate\tgrab_bike\tgrab_food\ttotal\t\n")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t\n", row.No, row.Date, row.Bike, row.Food, row.Total)
	}
	if len(r.Rows) == 0 {
		fmt.Fprint(tw, "\t(none)\t\t\t\t\n")
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	sw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(sw)
	for _, m := range r.Summary.Metrics() {
		fmt.Fprintf(sw, "%s\t%s\n", m.Label, m.Value)
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	w.logger.Debug("wrote report as text", "rows", len(r.Rows))
	return nil
}
