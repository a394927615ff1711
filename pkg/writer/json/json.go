// Package json implements a Writer that renders a report as JSON.
package json

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/ArionMiles/grabledger/pkg/report"
)

// Writer writes the whole report as one JSON document.
type Writer struct {
	encoder *json.Encoder
	logger  *slog.Logger
}

// Config holds configuration for the JSON writer.
type Config struct {
	// Indent pretty-prints the document with two spaces.
	Indent bool
}

// New creates a JSON writer on w.
func New(w io.Writer, cfg Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}

	enc := json.NewEncoder(w)
	if cfg.Indent {
		enc.SetIndent("", "  ")
	}
	return &Writer{
		encoder: enc,
		logger:  logger.With("component", "json_writer"),
	}
}

// Write encodes r followed by a newline.
func (w *Writer) Write(r report.Report) error {
	if err := w.encoder.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	w.logger.Debug("wrote report as json", "rows", len(r.Rows))
	return nil
}
