// Package imaptest runs an in-memory IMAP server over TLS for tests.
package imaptest

import (
	"bytes"
	"crypto/tls"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/emersion/go-imap/backend"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"

	"github.com/ArionMiles/grabledger/pkg/client"
)

// Credentials accepted by the memory backend.
const (
	Username = "username"
	Password = "password"
)

// Server is a running test IMAP server.
type Server struct {
	Host string
	Port int
	// TLS trusts the server certificate.
	TLS *tls.Config

	inbox backend.Mailbox
}

// Start launches a server on a loopback port and stops it when t ends.
//
// The memory backend seeds INBOX with one unrelated message.
func Start(t testing.TB) *Server {
	t.Helper()

	// httptest generates a certificate valid for 127.0.0.1.
	hs := httptest.NewUnstartedServer(http.NotFoundHandler())
	hs.StartTLS()
	cert := hs.TLS.Certificates[0]
	roots := hs.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs
	hs.Close()

	be := memory.New()
	user, err := be.Login(nil, Username, Password)
	if err != nil {
		t.Fatalf("logging in to memory backend: %v", err)
	}
	inbox, err := user.GetMailbox("INBOX")
	if err != nil {
		t.Fatalf("getting inbox: %v", err)
	}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	srv := server.New(be)
	srv.AllowInsecureAuth = true
	srv.ErrorLog = log.New(io.Discard, "", 0)
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { srv.Close() })

	addr := ln.Addr().(*net.TCPAddr)
	return &Server{
		Host:  "127.0.0.1",
		Port:  addr.Port,
		TLS:   &tls.Config{RootCAs: roots},
		inbox: inbox,
	}
}

// Config returns a client configuration for the server with valid credentials.
func (s *Server) Config() client.Config {
	return client.Config{
		Host:     s.Host,
		Port:     s.Port,
		Username: Username,
		Password: Password,
		Timeout:  5 * time.Second,
		TLS:      s.TLS,
	}
}

// Addr returns the host:port of the server.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Append adds a raw RFC 822 message to INBOX.
func (s *Server) Append(t testing.TB, raw string) {
	t.Helper()
	if err := s.inbox.CreateMessage(nil, time.Time{}, bytes.NewBufferString(raw)); err != nil {
		t.Fatalf("appending message: %v", err)
	}
}
