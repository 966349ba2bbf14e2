package services

import (
	"procurement/models"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LandedCost is the derived pricing of a single quote.
type LandedCost struct {
	BasePrice     decimal.Decimal
	GSTPercent    decimal.Decimal
	GSTAmount     decimal.Decimal
	TransportCost decimal.Decimal
	LandedCost    decimal.Decimal
}

// ComputeLandedCost derives GST and landed cost. Money is rounded half-to-even to two
// places; the landed cost is the exact sum of the rounded parts.
func ComputeLandedCost(basePrice, gstPercent, transportCost decimal.Decimal) (LandedCost, error) {
	if !basePrice.IsPositive() {
		return LandedCost{}, validationErr("base_price", "must be greater than 0, got %s", basePrice)
	}
	if gstPercent.IsNegative() || gstPercent.GreaterThan(hundred) {
		return LandedCost{}, validationErr("gst_percent", "must be between 0 and 100, got %s", gstPercent)
	}
	if transportCost.IsNegative() {
		return LandedCost{}, validationErr("transport_cost", "must not be negative, got %s", transportCost)
	}

	base := basePrice.RoundBank(2)
	transport := transportCost.RoundBank(2)
	gst := base.Mul(gstPercent).Div(hundred).RoundBank(2)

	return LandedCost{
		BasePrice:     base,
		GSTPercent:    gstPercent,
		GSTAmount:     gst,
		TransportCost: transport,
		LandedCost:    base.Add(gst).Add(transport),
	}, nil
}

// SortQuotesForComparison orders quotes by ascending landed cost, then earliest
// submission, then id.
func SortQuotesForComparison(quotes []models.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		if c := quotes[i].LandedCost.Cmp(quotes[j].LandedCost); c != 0 {
			return c < 0
		}
		if !quotes[i].CreatedAt.Equal(quotes[j].CreatedAt) {
			return quotes[i].CreatedAt.Before(quotes[j].CreatedAt)
		}
		return quotes[i].ID < quotes[j].ID
	})
}
