// Package logging configures the process-wide log/slog logger and tags
// pipeline runs.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Service is the value of the "service" attribute on every record.
const Service = "grabledger"

// Environment variables read by DefaultConfig.
const (
	EnvLevel  = "LOG_LEVEL"
	EnvFormat = "LOG_FORMAT"
)

// Config controls the handler built by Setup.
type Config struct {
	Level slog.Level
	// JSON selects slog's JSON handler instead of the text handler.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
	// Service, when set, is attached to every record.
	Service string
}

// DefaultConfig reads the logging configuration from the environment.
// LOG_LEVEL takes any slog level name (DEBUG, INFO, WARN, ERROR, also with an
// offset such as DEBUG-4) and falls back to INFO. LOG_FORMAT=json selects
// JSON output.
func DefaultConfig() Config {
	return Config{
		Level:   parseLogLevel(os.Getenv(EnvLevel)),
		JSON:    strings.EqualFold(os.Getenv(EnvFormat), "json"),
		Output:  os.Stderr,
		Service: Service,
	}
}

func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "WARNING") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Setup builds a logger from cfg, installs it as the slog default and
// returns it.
func Setup(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var h slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(h)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	slog.SetDefault(logger)
	return logger
}

// WithRun returns a logger tagged with a fresh run_id, and the id.
func WithRun(logger *slog.Logger) (*slog.Logger, string) {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return logger.With("run_id", id), id
}
