package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var keys = []string{
	"MAIL_ACCOUNT", "MAIL_PASSCODE", "IMAP_HOST", "IMAP_PORT",
	"IMAP_MAILBOX", "IMAP_TIMEOUT", "LISTEN_ADDR",
}

// unsetAll clears every config key for the duration of the test.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	unsetAll(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want %+v", cfg, Default())
	}
}

func TestLoad_Environment(t *testing.T) {
	unsetAll(t)
	t.Setenv("MAIL_ACCOUNT", "rider@example.com")
	t.Setenv("MAIL_PASSCODE", "app-password")
	t.Setenv("IMAP_HOST", "imap.example.com")
	t.Setenv("IMAP_PORT", "1993")
	t.Setenv("IMAP_MAILBOX", "Receipts")
	t.Setenv("IMAP_TIMEOUT", "30s")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Config{
		Account:    "rider@example.com",
		Passcode:   "app-password",
		Host:       "imap.example.com",
		Port:       1993,
		Mailbox:    "Receipts",
		Timeout:    30 * time.Second,
		ListenAddr: "127.0.0.1:9000",
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	unsetAll(t)
	t.Setenv("MAIL_ACCOUNT", "from-env@example.com")

	dotenv := "MAIL_ACCOUNT=from-file@example.com\nMAIL_PASSCODE=file-secret\n"
	if err := os.WriteFile(filepath.Join(".", DotEnvFile), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Account != "from-env@example.com" {
		t.Errorf("account: got %q, want the environment to win", cfg.Account)
	}
	if cfg.Passcode != "file-secret" {
		t.Errorf("passcode: got %q, want file-secret", cfg.Passcode)
	}
}

func TestLoad_BadValue(t *testing.T) {
	unsetAll(t)
	t.Setenv("IMAP_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for an invalid duration")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Account = "rider@example.com"
	valid.Passcode = "secret"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no passcode", func(c *Config) { c.Passcode = "" }, "MAIL_PASSCODE"},
		{"no credentials", func(c *Config) { c.Account, c.Passcode = "", "" }, "MAIL_ACCOUNT, MAIL_PASSCODE"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "IMAP_PORT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("got %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("got %v, want error mentioning %s", err, tc.wantErr)
			}
		})
	}

	cfg := valid
	cfg.Account = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissing) {
		t.Errorf("got %v, want ErrMissing", err)
	}
}

func TestSession(t *testing.T) {
	cfg := Default()
	cfg.Account = "rider@example.com"
	cfg.Passcode = "secret"

	s := cfg.Session()
	if s.Mailbox != "Inbox" {
		t.Errorf("mailbox: got %q, want Inbox", s.Mailbox)
	}
	if s.Client.Addr() != "imap.gmail.com:993" {
		t.Errorf("addr: got %q", s.Client.Addr())
	}
	if s.Client.Username != cfg.Account || s.Client.Password != cfg.Passcode {
		t.Errorf("credentials not carried over: %+v", s.Client)
	}
}

func TestConfig_LogValueRedactsPasscode(t *testing.T) {
	cfg := Default()
	cfg.Account = "rider@example.com"
	cfg.Passcode = "hunter2"

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("configuration loaded", "config", cfg)

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Fatalf("passcode leaked: %s", out)
	}
	if !strings.Contains(out, "config.passcode=set") || !strings.Contains(out, "config.account=rider@example.com") {
		t.Errorf("got %s", out)
	}
}
