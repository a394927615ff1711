package grab

import (
	"github.com/ArionMiles/grabledger/pkg/api"
	"github.com/ArionMiles/grabledger/pkg/extractor"
)

// Receipt subject markers. Every Bike subject also contains the Food marker,
// so the Food rule must exclude the Bike one.
const (
	BikeSubject = "[Jasamarga] Your Grab E-Receipt"
	FoodSubject = "Your Grab E-Receipt"
)

// BikeRule matches GrabBike receipts.
func BikeRule() api.Rule {
	return api.Rule{
		Name:      "GrabBike",
		Category:  api.CategoryBike,
		Criteria:  api.Criteria{SubjectContains: []string{BikeSubject}},
		Extractor: extractor.Bike{},
	}
}

// FoodRule matches GrabFood receipts.
func FoodRule() api.Rule {
	return api.Rule{
		Name:     "GrabFood",
		Category: api.CategoryFood,
		Criteria: api.Criteria{
			SubjectContains: []string{FoodSubject},
			SubjectExcludes: []string{BikeSubject},
		},
		Extractor: extractor.Food{},
	}
}

// DefaultRules returns the Bike and Food rules, in that order.
func DefaultRules() []api.Rule {
	return []api.Rule{BikeRule(), FoodRule()}
}
