// Package extractor implements the receipt amount heuristics, one Extractor
// per transaction category.
//
// Both heuristics are coupled to the provider's current table markup. A
// change there is expected to surface as absent amounts, never as errors.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ArionMiles/grabledger/pkg/api"
)

var (
	nonDigit = regexp.MustCompile(`[^0-9]`)
	digitRun = regexp.MustCompile(`[0-9]+`)
)

// parse builds a document from an HTML body. The x/net/html parser recovers
// from any input, so a nil document only follows a reader failure, which
// cannot happen for a strings.Reader.
func parse(body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	return doc
}

// stripNonDigits removes every character except 0-9 and parses the rest.
func stripNonDigits(s string) api.Amount {
	return parseDigits(nonDigit.ReplaceAllString(s, ""))
}

// firstDigitRun parses the first maximal run of digits in s.
func firstDigitRun(s string) api.Amount {
	return parseDigits(digitRun.FindString(s))
}

func parseDigits(digits string) api.Amount {
	if digits == "" {
		return api.Absent()
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Only overflow reaches here; such a total is not a receipt amount.
		return api.Absent()
	}
	return api.Present(n)
}
