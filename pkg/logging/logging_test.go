package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"DEBUG-4", slog.LevelDebug - 4},
		{"warn+2", slog.LevelWarn + 2},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := parseLogLevel(tc.in); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg := DefaultConfig()
	if cfg.Level != slog.LevelDebug {
		t.Errorf("level: got %v, want DEBUG", cfg.Level)
	}
	if !cfg.JSON {
		t.Error("expected json output")
	}
	if cfg.Service != Service {
		t.Errorf("service: got %q, want %q", cfg.Service, Service)
	}

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	cfg = DefaultConfig()
	if cfg.Level != slog.LevelInfo || cfg.JSON {
		t.Errorf("got %+v, want INFO text", cfg)
	}
}

func TestSetup_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(Config{Level: slog.LevelInfo, JSON: true, Output: &buf, Service: Service})
	logger.Debug("hidden")
	logger.Info("shown", "component", "test")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec["msg"] != "shown" || rec["component"] != "test" || rec["service"] != Service {
		t.Errorf("got %v", rec)
	}
	if slog.Default() != logger {
		t.Error("Setup did not install the default logger")
	}
}

func TestSetup_TextWithoutService(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(Config{Level: slog.LevelDebug, Output: &buf}).Debug("debugging")

	got := buf.String()
	if !strings.Contains(got, "level=DEBUG") || !strings.Contains(got, "msg=debugging") {
		t.Errorf("got %q", got)
	}
	if strings.Contains(got, "service=") {
		t.Errorf("unexpected service attribute: %q", got)
	}
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	logger, id := WithRun(base)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("run id %q is not a uuid: %v", id, err)
	}
	logger.Info("run started")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec["run_id"] != id {
		t.Errorf("run_id: got %v, want %s", rec["run_id"], id)
	}

	if _, other := WithRun(base); other == id {
		t.Error("run ids must differ between runs")
	}
}
