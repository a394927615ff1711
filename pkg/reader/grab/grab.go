// Package grab reads Grab e-receipts from a message source and turns them
// into category records.
package grab

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emersion/go-message"

	"github.com/ArionMiles/grabledger/pkg/api"
	"github.com/ArionMiles/grabledger/pkg/metrics"
	"github.com/ArionMiles/grabledger/pkg/mimebody"
	"github.com/ArionMiles/grabledger/pkg/timezone"
)

// ErrParse is returned when a fetched message cannot be turned into a record.
var ErrParse = errors.New("parsing receipt")

// Reader reads the messages matched by a rule.
type Reader struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Reader. m may be nil.
func New(m *metrics.Metrics, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		metrics: m,
		logger:  logger.With("component", "grab_reader"),
	}
}

// ReadRule searches src with the rule's criteria and parses every match in
// UID order. The first failure aborts and no records are returned.
func (r *Reader) ReadRule(src api.Source, rule api.Rule) ([]api.CategoryRecord, error) {
	logger := r.logger.With("rule", rule.Name, "category", rule.Category)

	uids, err := src.Search(rule.Criteria)
	if err != nil {
		return nil, fmt.Errorf("searching %s receipts: %w", rule.Name, err)
	}
	logger.Info("found messages", "count", len(uids))

	records := make([]api.CategoryRecord, 0, len(uids))
	for _, uid := range uids {
		raw, err := src.Fetch(uid)
		if err != nil {
			return nil, fmt.Errorf("reading %s receipts: %w", rule.Name, err)
		}

		rec, err := ParseRecord(raw, rule)
		if err != nil {
			return nil, fmt.Errorf("reading %s receipts: %w", rule.Name, err)
		}
		r.metrics.IncrMessage(string(rule.Category))

		if !rec.Amount.IsPresent() {
			r.metrics.IncrExtractionMiss(string(rule.Category))
			logger.Debug("amount not found", "uid", uid, "date", rec.Date())
		} else {
			logger.Debug("extracted record", "uid", uid, "date", rec.Date(), "amount", rec.Amount)
		}
		records = append(records, rec)
	}

	return records, nil
}

// ParseRecord parses a raw message and applies the rule's extractor.
func ParseRecord(raw *api.RawMessage, rule api.Rule) (api.CategoryRecord, error) {
	e, err := message.Read(bytes.NewReader(raw.Literal))
	switch {
	case err == nil:
	case message.IsUnknownCharset(err) || message.IsUnknownEncoding(err):
		return api.CategoryRecord{}, fmt.Errorf("%w: uid %d: %w: %w", ErrParse, raw.UID, mimebody.ErrUndecodable, err)
	default:
		return api.CategoryRecord{}, fmt.Errorf("%w: uid %d: reading message: %w", ErrParse, raw.UID, err)
	}

	body, err := mimebody.Flatten(e)
	if err != nil {
		return api.CategoryRecord{}, fmt.Errorf("%w: uid %d: %w", ErrParse, raw.UID, err)
	}

	ts, err := timezone.Normalize(e.Header.Get("Date"))
	if err != nil {
		return api.CategoryRecord{}, fmt.Errorf("%w: uid %d: %w", ErrParse, raw.UID, err)
	}

	return api.CategoryRecord{
		Category:  rule.Category,
		UID:       raw.UID,
		Timestamp: ts,
		Amount:    rule.Extractor.Extract(body),
	}, nil
}
