// Package api defines the core interfaces and data structures for grabledger.
package api

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
)

// DateLayout is the calendar date format used for ledger keys and report bounds.
const DateLayout = time.DateOnly

// Category identifies the transaction kind a receipt belongs to.
// The value doubles as the report column and chart category name.
type Category string

const (
	// CategoryBike is a GrabBike ride paid through the Jasamarga receipt flow.
	CategoryBike Category = "grab_bike"
	// CategoryFood is a GrabFood order.
	CategoryFood Category = "grab_food"
)

// Amount is an extracted currency amount in whole units, or nothing when the
// receipt did not contain the expected label. The zero value is absent.
type Amount struct {
	value int64
	ok    bool
}

// Present returns an Amount holding n.
func Present(n int64) Amount {
	return Amount{value: n, ok: true}
}

// Absent returns an Amount holding no value.
func Absent() Amount {
	return Amount{}
}

// Value returns the amount and whether it is present.
func (a Amount) Value() (int64, bool) {
	return a.value, a.ok
}

// IsPresent reports whether an amount was extracted.
func (a Amount) IsPresent() bool {
	return a.ok
}

// OrZero returns the amount, or 0 when absent.
func (a Amount) OrZero() int64 {
	if !a.ok {
		return 0
	}
	return a.value
}

func (a Amount) String() string {
	if !a.ok {
		return "absent"
	}
	return strconv.FormatInt(a.value, 10)
}

// CategoryRecord is one receipt's contribution to the ledger.
type CategoryRecord struct {
	Category Category
	// UID is the mailbox identifier of the source message.
	UID uint32
	// Timestamp is the message transmission time in the fixed UTC+7 zone.
	Timestamp time.Time
	Amount    Amount
}

// Date returns the record's calendar date in its timestamp's zone.
func (r CategoryRecord) Date() string {
	return r.Timestamp.Format(DateLayout)
}

// LedgerRow is the per-day aggregation of both categories.
type LedgerRow struct {
	Date  string `json:"date"`
	Bike  int64  `json:"grab_bike"`
	Food  int64  `json:"grab_food"`
	Total int64  `json:"total"`
}

// RawMessage is a full RFC 822 message as delivered by a Source.
type RawMessage struct {
	UID     uint32
	Literal []byte
}

// Criteria is a subject-based message predicate.
type Criteria struct {
	// SubjectContains lists substrings the subject must all contain.
	SubjectContains []string
	// SubjectExcludes lists substrings the subject must not contain.
	SubjectExcludes []string
}

// IMAP converts the criteria to an IMAP SEARCH criteria.
func (c Criteria) IMAP() *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	for _, s := range c.SubjectContains {
		criteria.Header.Add("Subject", s)
	}
	for _, s := range c.SubjectExcludes {
		not := imap.NewSearchCriteria()
		not.Header.Add("Subject", s)
		criteria.Not = append(criteria.Not, not)
	}
	return criteria
}

// Match evaluates the criteria against a decoded subject the way an IMAP
// server does for SUBJECT keys: case-insensitive substring matching.
func (c Criteria) Match(subject string) bool {
	subject = strings.ToLower(subject)
	for _, s := range c.SubjectContains {
		if !strings.Contains(subject, strings.ToLower(s)) {
			return false
		}
	}
	for _, s := range c.SubjectExcludes {
		if strings.Contains(subject, strings.ToLower(s)) {
			return false
		}
	}
	return true
}

// Extractor locates a receipt's total amount in a flattened message body.
type Extractor interface {
	Extract(body string) Amount
}

// Rule binds a category to its search predicate and extraction heuristic.
type Rule struct {
	Name      string
	Category  Category
	Criteria  Criteria
	Extractor Extractor
}

// Source yields raw messages matching search criteria, read-only.
type Source interface {
	Search(criteria Criteria) ([]uint32, error)
	Fetch(uid uint32) (*RawMessage, error)
}

// Session is a Source holding a connection that must be released.
type Session interface {
	Source
	io.Closer
}
