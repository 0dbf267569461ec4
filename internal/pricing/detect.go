package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Detect decides whether the effective price qualifies as a drop alert
// against the baseline (earliest known) price. Pure and total: a zero or
// negative baseline never fires, and an unavailable record never fires even
// though its carried-forward price equals the prior price anyway.
func Detect(baseline decimal.Decimal, currency string, effective decimal.Decimal, available bool, threshold decimal.Decimal) domain.AlertDecision {
	if !available {
		return domain.AlertDecision{}
	}
	if !baseline.IsPositive() {
		return domain.AlertDecision{}
	}
	// An unchanged or increased price is never a drop, whatever the threshold.
	if !effective.LessThan(baseline) {
		return domain.AlertDecision{}
	}

	drop := baseline.Sub(effective).Div(baseline)
	if drop.LessThan(threshold) {
		return domain.AlertDecision{}
	}

	return domain.AlertDecision{
		Drop:           true,
		OldPrice:       baseline,
		NewPrice:       effective,
		Currency:       currency,
		DropPercentage: drop.Mul(hundred).Round(1),
	}
}
