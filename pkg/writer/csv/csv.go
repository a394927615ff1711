// Package csv implements a Writer that renders a report as CSV.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/ArionMiles/grabledger/pkg/report"
)

// Header is the column row written before the report rows.
var Header = []string{"no.", "date", "grab_bike", "grab_food", "total"}

// Writer writes report rows as CSV.
type Writer struct {
	writer *csv.Writer
	logger *slog.Logger
}

// New creates a CSV writer on w.
func New(w io.Writer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		writer: csv.NewWriter(w),
		logger: logger.With("component", "csv_writer"),
	}
}

// Write writes the header followed by one record per row. The summary and
// chart are not part of the CSV output.
func (w *Writer) Write(r report.Report) error {
	if err := w.writer.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, row := range r.Rows {
		record := []string{
			strconv.Itoa(row.No),
			row.Date,
			strconv.FormatInt(row.Bike, 10),
			strconv.FormatInt(row.Food, 10),
			strconv.FormatInt(row.Total, 10),
		}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	w.logger.Debug("wrote report rows to csv", "count", len(r.Rows))
	return nil
}
