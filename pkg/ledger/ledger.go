// Package ledger joins the per-category receipt records into one row per day.
package ledger

import (
	"slices"

	"github.com/ArionMiles/grabledger/pkg/api"
)

// Build returns one row for every date present in bike or food, sorted by
// ascending date.
//
// Same-day amounts of a category are summed. Absent amounts and categories
// with no record on a date count as zero.
func Build(bike, food []api.CategoryRecord) []api.LedgerRow {
	bikeSums := sumByDate(bike)
	foodSums := sumByDate(food)

	dates := make([]string, 0, len(bikeSums)+len(foodSums))
	for d := range bikeSums {
		dates = append(dates, d)
	}
	for d := range foodSums {
		if _, ok := bikeSums[d]; !ok {
			dates = append(dates, d)
		}
	}
	slices.Sort(dates)

	rows := make([]api.LedgerRow, 0, len(dates))
	for _, d := range dates {
		b, f := bikeSums[d], foodSums[d]
		rows = append(rows, api.LedgerRow{
			Date:  d,
			Bike:  b,
			Food:  f,
			Total: b + f,
		})
	}
	return rows
}

func sumByDate(records []api.CategoryRecord) map[string]int64 {
	sums := make(map[string]int64, len(records))
	for _, r := range records {
		sums[r.Date()] += r.Amount.OrZero()
	}
	return sums
}
