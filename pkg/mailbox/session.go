// Package mailbox provides read-only message sources: a live IMAP session and
// an mbox replay.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/emersion/go-imap"

	"github.com/ArionMiles/grabledger/pkg/api"
	"github.com/ArionMiles/grabledger/pkg/client"
)

var (
	// ErrSelect is returned when the folder cannot be opened.
	ErrSelect = errors.New("selecting mailbox failed")
	// ErrSearch is returned when the server fails a search.
	ErrSearch = errors.New("searching mailbox failed")
	// ErrFetch is returned when a message cannot be retrieved.
	ErrFetch = errors.New("fetching message failed")
)

// DefaultMailbox is the folder searched when none is configured.
const DefaultMailbox = "Inbox"

// Config configures a Session.
type Config struct {
	Client  client.Config
	Mailbox string
}

// imapClient is the subset of *client.Client used by a Session.
type imapClient interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// Session is an authenticated connection with one folder selected read-only.
// It is not safe for concurrent use.
type Session struct {
	c       imapClient
	mailbox string
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ api.Session = (*Session)(nil)

// Open connects, logs in and selects cfg.Mailbox read-only.
// The caller must Close the returned session.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Session, error) {
	c, err := client.Dial(ctx, cfg.Client, logger)
	if err != nil {
		return nil, err
	}
	return newSession(c, cfg.Mailbox, logger)
}

func newSession(c imapClient, mailbox string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if mailbox == "" {
		mailbox = DefaultMailbox
	}

	s := &Session{
		c:       c,
		mailbox: mailbox,
		logger:  logger.With("component", "mailbox", "mailbox", mailbox),
	}

	status, err := c.Select(mailbox, true)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrSelect, mailbox, err)
	}
	s.logger.Debug("mailbox selected", "messages", status.Messages)
	return s, nil
}

// Search returns the UIDs of messages matching criteria in ascending order.
// No match yields an empty slice.
func (s *Session) Search(criteria api.Criteria) ([]uint32, error) {
	uids, err := s.c.UidSearch(criteria.IMAP())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	s.logger.Debug("search complete",
		"subject_contains", criteria.SubjectContains,
		"subject_excludes", criteria.SubjectExcludes,
		"matches", len(uids))
	return uids, nil
}

// Fetch retrieves the full content of one message without setting \Seen.
func (s *Session) Fetch(uid uint32) (*api.RawMessage, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.c.UidFetch(seqset, items, messages)
	}()

	var literal []byte
	var readErr error
	for msg := range messages {
		if msg == nil || literal != nil {
			continue
		}
		for _, body := range msg.Body {
			if body == nil {
				continue
			}
			b, err := io.ReadAll(body)
			if err != nil {
				readErr = err
				continue
			}
			literal = b
			break
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: uid %d: %w", ErrFetch, uid, err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: uid %d: reading literal: %w", ErrFetch, uid, readErr)
	}
	if literal == nil {
		return nil, fmt.Errorf("%w: uid %d: no message content returned", ErrFetch, uid)
	}
	return &api.RawMessage{UID: uid, Literal: literal}, nil
}

// Close logs out. Calls after the first return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.c.Logout(); err != nil {
			s.closeErr = fmt.Errorf("logging out: %w", err)
			s.logger.Warn("logout failed", "error", err)
			return
		}
		s.logger.Debug("logged out")
	})
	return s.closeErr
}
