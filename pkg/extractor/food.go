package extractor

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/ArionMiles/grabledger/pkg/api"
)

// foodLabel matches the GrabFood total label, case-sensitively.
var foodLabel = regexp.MustCompile(`TOTAL +\(INCL\. +TAX\)`)

// Food extracts the tax-inclusive total from GrabFood receipts.
//
// Leaf cells (td elements with no nested td) are scanned in document order.
// The first leaf whose text contains the label and whose next sibling element
// holds a digit run decides the result. A label with no sibling, or with a
// sibling without digits, is skipped.
type Food struct{}

var _ api.Extractor = Food{}

// Extract implements api.Extractor.
func (Food) Extract(body string) api.Amount {
	doc := parse(body)
	if doc == nil {
		return api.Absent()
	}

	amount := api.Absent()
	doc.Find("td").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Find("td").Length() > 0 || !foodLabel.MatchString(s.Text()) {
			return true
		}
		value := s.Next()
		if value.Length() == 0 {
			return true
		}
		amount = firstDigitRun(value.Text())
		return !amount.IsPresent()
	})
	return amount
}
