package extractor

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/ArionMiles/grabledger/pkg/api"
)

// BikeLabel is the text of the cell preceding the GrabBike total.
const BikeLabel = "Total Paid"

// Bike extracts the paid total from GrabBike receipts.
//
// It takes the first td whose text is exactly BikeLabel and reads the digits of
// the next td in the same row, so "Rp 45.000" yields 45000.
type Bike struct{}

var _ api.Extractor = Bike{}

// Extract implements api.Extractor.
func (Bike) Extract(body string) api.Amount {
	doc := parse(body)
	if doc == nil {
		return api.Absent()
	}

	label := doc.Find("td").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Text() == BikeLabel
	}).First()
	if label.Length() == 0 {
		return api.Absent()
	}

	value := label.NextAllFiltered("td").First()
	if value.Length() == 0 {
		return api.Absent()
	}
	return stripNonDigits(value.Text())
}
