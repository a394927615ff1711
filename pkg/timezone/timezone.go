// Package timezone converts e-mail transmission dates to the fixed UTC+7
// calendar the ledger is kept in.
package timezone

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Layout is the output timestamp format.
const Layout = time.DateTime

// Location is the fixed UTC+7 zone. It never consults the tz database or the
// host's local zone.
var Location = time.FixedZone("WIB", 7*60*60)

// ErrInvalidDate is returned when a Date header cannot be parsed.
var ErrInvalidDate = errors.New("invalid date header")

// numericZone matches a trailing "+hhmm" or "-hhmm", optionally followed by a
// comment such as "(UTC)".
var numericZone = regexp.MustCompile(`[+-][0-9]{4}(\s*\([^)]*\))?\s*$`)

// Normalize parses an RFC 2822 date with a numeric offset and returns the
// same instant in Location. Obsolete alphabetic zones such as "GMT" or "EST"
// are rejected. The leading day name is optional.
func Normalize(date string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if !numericZone.MatchString(date) {
		return time.Time{}, fmt.Errorf("%w: %q: no numeric zone offset", ErrInvalidDate, date)
	}
	t, err := mail.ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidDate, date, err)
	}
	return t.In(Location), nil
}

// Format parses date and formats it as "YYYY-MM-DD HH:MM:SS" in Location.
func Format(date string) (string, error) {
	t, err := Normalize(date)
	if err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}

// ParseDay parses a "YYYY-MM-DD" calendar date as midnight in Location.
func ParseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, day, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidDate, day, err)
	}
	return t, nil
}

// Today returns midnight of the current calendar day in Location.
func Today() time.Time {
	y, m, d := time.Now().In(Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Location)
}
