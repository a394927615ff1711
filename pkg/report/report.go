// Package report turns a daily ledger into the data a dashboard renders: a
// numbered table for a date range, six summary figures and a long-form chart
// dataset.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ArionMiles/grabledger/pkg/api"
	"github.com/ArionMiles/grabledger/pkg/timezone"
)

// Row is a ledger row numbered within the filtered view.
type Row struct {
	No    int    `json:"no."`
	Date  string `json:"date"`
	Bike  int64  `json:"grab_bike"`
	Food  int64  `json:"grab_food"`
	Total int64  `json:"total"`
}

// Point is one observation of the long-form chart dataset.
type Point struct {
	Date     string       `json:"date"`
	Category api.Category `json:"category"`
	Value    int64        `json:"value"`
}

// Summary holds the formatted totals and averages of the filtered rows.
type Summary struct {
	BikeTotal    string `json:"grab_bike_total"`
	BikeAverage  string `json:"grab_bike_average"`
	FoodTotal    string `json:"grab_food_total"`
	FoodAverage  string `json:"grab_food_average"`
	Total        string `json:"total"`
	AverageTotal string `json:"average_total"`
}

// Metric is a labelled summary figure.
type Metric struct {
	Label string
	Value string
}

// Metrics returns the summary figures in display order.
func (s Summary) Metrics() []Metric {
	return []Metric{
		{"Grab Bike Total", s.BikeTotal},
		{"Grab Bike Average", s.BikeAverage},
		{"Grab Food Total", s.FoodTotal},
		{"Grab Food Average", s.FoodAverage},
		{"Total (GB+GF)", s.Total},
		{"Average Total", s.AverageTotal},
	}
}

// Report is the filtered view of a ledger.
type Report struct {
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
	Chart   []Point `json:"chart"`
}

// Build keeps the rows dated within [start, end], both inclusive, compared as
// calendar dates in UTC+7. A start after end yields an empty report.
func Build(rows []api.LedgerRow, start, end time.Time) Report {
	from := start.In(timezone.Location).Format(api.DateLayout)
	to := end.In(timezone.Location).Format(api.DateLayout)

	filtered := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Date < from || r.Date > to {
			continue
		}
		filtered = append(filtered, Row{
			No:    len(filtered) + 1,
			Date:  r.Date,
			Bike:  r.Bike,
			Food:  r.Food,
			Total: r.Total,
		})
	}

	return Report{
		Start:   from,
		End:     to,
		Rows:    filtered,
		Summary: summarize(filtered),
		Chart:   chart(filtered),
	}
}

func summarize(rows []Row) Summary {
	var bike, food, total int64
	var foodDays int64
	for _, r := range rows {
		bike += r.Bike
		food += r.Food
		total += r.Total
		if r.Food > 0 {
			foodDays++
		}
	}
	n := int64(len(rows))

	return Summary{
		BikeTotal:    Rupiah(bike),
		BikeAverage:  Rupiah(mean(bike, n)),
		FoodTotal:    Rupiah(food),
		FoodAverage:  Rupiah(mean(food, foodDays)),
		Total:        Rupiah(total),
		AverageTotal: Rupiah(mean(total, n)),
	}
}

// mean divides sum by n rounding half to even. An empty set averages to 0.
func mean(sum, n int64) int64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(n)).RoundBank(0).IntPart()
}

// chart melts the rows: every bike point first, then every food point.
func chart(rows []Row) []Point {
	points := make([]Point, 0, 2*len(rows))
	for _, r := range rows {
		points = append(points, Point{Date: r.Date, Category: api.CategoryBike, Value: r.Bike})
	}
	for _, r := range rows {
		points = append(points, Point{Date: r.Date, Category: api.CategoryFood, Value: r.Food})
	}
	return points
}

var printer = message.NewPrinter(language.English)

// Rupiah formats n as "Rp 1,234".
func Rupiah(n int64) string {
	return printer.Sprintf("Rp %d", n)
}

// ParseDate parses a "YYYY-MM-DD" range bound in UTC+7.
func ParseDate(s string) (time.Time, error) {
	t, err := timezone.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing range bound: %w", err)
	}
	return t, nil
}

// Bounds returns the first and last dates of rows, which must be sorted.
// ok is false when rows is empty.
func Bounds(rows []api.LedgerRow) (start, end time.Time, ok bool) {
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, err := timezone.ParseDay(rows[0].Date)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = timezone.ParseDay(rows[len(rows)-1].Date)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// Resolve fills a zero start or end with the first or last ledger date. Both
// fall back to today in UTC+7 when rows is empty.
func Resolve(rows []api.LedgerRow, start, end time.Time) (time.Time, time.Time) {
	first, last, ok := Bounds(rows)
	if !ok {
		first = timezone.Today()
		last = first
	}
	if start.IsZero() {
		start = first
	}
	if end.IsZero() {
		end = last
	}
	return start, end
}
