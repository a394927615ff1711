// Package config loads the grabledger configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/grabledger/pkg/client"
	"github.com/ArionMiles/grabledger/pkg/mailbox"
)

// DotEnvFile is the optional file seeding the environment before it is read.
const DotEnvFile = ".env"

// ErrMissing is returned by Validate when a required key is unset.
var ErrMissing = errors.New("missing required configuration")

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Account is the mailbox login, usually the email address.
	// Environment variable: MAIL_ACCOUNT
	Account string `koanf:"MAIL_ACCOUNT"`

	// Passcode is the mailbox app password.
	// Environment variable: MAIL_PASSCODE
	Passcode string `koanf:"MAIL_PASSCODE"`

	// Environment variable: IMAP_HOST
	Host string `koanf:"IMAP_HOST"`

	// Environment variable: IMAP_PORT
	Port int `koanf:"IMAP_PORT"`

	// Mailbox is the folder searched for receipts.
	// Environment variable: IMAP_MAILBOX
	Mailbox string `koanf:"IMAP_MAILBOX"`

	// Timeout bounds every IMAP command, e.g. "30s" or "1m".
	// Environment variable: IMAP_TIMEOUT
	Timeout time.Duration `koanf:"IMAP_TIMEOUT"`

	// ListenAddr is the address the HTTP API binds to.
	// Environment variable: LISTEN_ADDR
	ListenAddr string `koanf:"LISTEN_ADDR"`
}

// Default returns the configuration used for unset keys.
func Default() Config {
	return Config{
		Host:       "imap.gmail.com",
		Port:       client.DefaultPort,
		Mailbox:    mailbox.DefaultMailbox,
		Timeout:    client.DefaultTimeout,
		ListenAddr: ":8080",
	}
}

// Load reads the configuration from the environment, after seeding it from
// .env when that file exists. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Validate reports every missing required key at once.
func (c Config) Validate() error {
	var missing []string
	if c.Account == "" {
		missing = append(missing, "MAIL_ACCOUNT")
	}
	if c.Passcode == "" {
		missing = append(missing, "MAIL_PASSCODE")
	}
	if c.Host == "" {
		missing = append(missing, "IMAP_HOST")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("IMAP_PORT %d out of range", c.Port)
	}
	return nil
}

// Session returns the mailbox session configuration.
func (c Config) Session() mailbox.Config {
	return mailbox.Config{
		Client: client.Config{
			Host:     c.Host,
			Port:     c.Port,
			Username: c.Account,
			Password: c.Passcode,
			Timeout:  c.Timeout,
		},
		Mailbox: c.Mailbox,
	}
}

// LogValue implements slog.LogValuer. The passcode is never included.
func (c Config) LogValue() slog.Value {
	passcode := "unset"
	if c.Passcode != "" {
		passcode = "set"
	}
	return slog.GroupValue(
		slog.String("account", c.Account),
		slog.String("passcode", passcode),
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
		slog.String("mailbox", c.Mailbox),
		slog.Duration("timeout", c.Timeout),
		slog.String("listen_addr", c.ListenAddr),
	)
}
