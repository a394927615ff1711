package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	"github.com/ArionMiles/grabledger/pkg/api"
)

// MboxSource replays messages from an mbox export. UIDs are the 1-based
// positions of messages in the file.
type MboxSource struct {
	messages [][]byte
	subjects []string
	logger   *slog.Logger
}

var _ api.Session = (*MboxSource)(nil)

// OpenMbox reads the mbox file at path.
func OpenMbox(path string, logger *slog.Logger) (*MboxSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mbox: %w", err)
	}
	defer f.Close()

	return NewMboxSource(f, logger)
}

// NewMboxSource reads every message from r.
func NewMboxSource(r io.Reader, logger *slog.Logger) (*MboxSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	src := &MboxSource{logger: logger.With("component", "mbox")}

	mr := mbox.NewReader(r)
	for {
		msg, err := mr.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading mbox message %d: %w", len(src.messages)+1, err)
		}

		b, err := io.ReadAll(msg)
		if err != nil {
			return nil, fmt.Errorf("reading mbox message %d: %w", len(src.messages)+1, err)
		}
		src.messages = append(src.messages, b)
		src.subjects = append(src.subjects, subject(b))
	}

	src.logger.Debug("mbox loaded", "messages", len(src.messages))
	return src, nil
}

// subject returns the decoded Subject header, or "" if it cannot be read.
func subject(raw []byte) string {
	e, err := message.Read(bytes.NewReader(raw))
	if e == nil {
		return ""
	}
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return ""
	}
	h := mail.Header{Header: e.Header}
	s, err := h.Subject()
	if err != nil {
		return h.Get("Subject")
	}
	return s
}

// Len returns the number of messages.
func (m *MboxSource) Len() int {
	return len(m.messages)
}

// Search evaluates criteria against each message's subject.
func (m *MboxSource) Search(criteria api.Criteria) ([]uint32, error) {
	var uids []uint32
	for i, s := range m.subjects {
		if criteria.Match(s) {
			uids = append(uids, uint32(i+1))
		}
	}
	return uids, nil
}

// Fetch returns the message at position uid.
func (m *MboxSource) Fetch(uid uint32) (*api.RawMessage, error) {
	if uid == 0 || int(uid) > len(m.messages) {
		return nil, fmt.Errorf("%w: uid %d: no such message", ErrFetch, uid)
	}
	return &api.RawMessage{UID: uid, Literal: m.messages[uid-1]}, nil
}

// Close is a no-op; the file is fully read by OpenMbox.
func (m *MboxSource) Close() error {
	return nil
}

// Writer appends raw messages to an mbox stream.
type Writer struct {
	w *mbox.Writer
}

// NewWriter returns a Writer on w. Close flushes the final message.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: mbox.NewWriter(w)}
}

// Write appends one message. from and date populate the separator line.
func (w *Writer) Write(raw *api.RawMessage, from string, date time.Time) error {
	mw, err := w.w.CreateMessage(from, date)
	if err != nil {
		return fmt.Errorf("creating mbox message: %w", err)
	}
	if _, err := mw.Write(raw.Literal); err != nil {
		return fmt.Errorf("writing mbox message: %w", err)
	}
	return nil
}

// Append writes raw with a separator line taken from its From and Date
// headers.
func (w *Writer) Append(raw *api.RawMessage) error {
	from, date := envelope(raw.Literal)
	return w.Write(raw, from, date)
}

// envelope returns the sender address and date of raw, falling back to
// MAILER-DAEMON and the Unix epoch.
func envelope(raw []byte) (string, time.Time) {
	from, date := "MAILER-DAEMON", time.Unix(0, 0).UTC()

	e, err := message.Read(bytes.NewReader(raw))
	if e == nil || (err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err)) {
		return from, date
	}
	h := mail.Header{Header: e.Header}
	if addrs, err := h.AddressList("From"); err == nil && len(addrs) > 0 {
		from = addrs[0].Address
	}
	if d, err := h.Date(); err == nil && !d.IsZero() {
		date = d
	}
	return from, date
}

// Close finishes the stream.
func (w *Writer) Close() error {
	return w.w.Close()
}
