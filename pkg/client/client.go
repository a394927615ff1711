// Package client provides the authenticated IMAP client used by a run.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
)

var (
	// ErrConnection is returned when the server cannot be reached or the TLS
	// handshake or greeting fails.
	ErrConnection = errors.New("imap connection failed")
	// ErrAuthentication is returned when the server rejects the credentials.
	ErrAuthentication = errors.New("imap authentication failed")
)

const (
	// DefaultPort is the implicit TLS IMAP port.
	DefaultPort = 993
	// DefaultTimeout bounds the dial and every subsequent command.
	DefaultTimeout = time.Minute
)

// Config holds the connection parameters for one IMAP account.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	// TLS overrides the TLS client configuration. ServerName defaults to Host.
	TLS *tls.Config
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// LogValue implements slog.LogValuer. The password is never included.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.Addr()),
		slog.String("username", c.Username),
		slog.Duration("timeout", c.timeout()),
	)
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Dial opens a TLS connection to the server and logs in.
//
// ctx bounds the dial and handshake only. Once Dial returns, each command is
// bounded by cfg.Timeout instead.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*imapclient.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "imap_client")

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.TLS != nil {
		tlsConfig = cfg.TLS.Clone()
	}
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = cfg.Host
	}

	timeout := cfg.timeout()
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    tlsConfig,
	}
	logger.Debug("dialing imap server", "config", cfg)
	conn, err := dialer.DialContext(dialCtx, "tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	// The greeting is read inside New, before Timeout can be set.
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	c, err := imapclient.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: reading greeting: %w", ErrConnection, err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	c.Timeout = timeout
	c.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		if c.State() == imap.LogoutState {
			return nil, fmt.Errorf("%w: login: %w", ErrConnection, err)
		}
		_ = c.Logout()
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	logger.Info("logged in", "addr", cfg.Addr(), "username", cfg.Username)
	return c, nil
}
