// Package energy estimates the electricity consumed by a conversation from
// its token totals and maps the estimate onto everyday comparisons for the
// dashboard.
package energy

import "github.com/shopspring/decimal"

// whPerToken is the assumed marginal energy per generated token, in
// watt-hours. Derived from published per-query estimates for GPT-class
// models (~3 Wh per query at ~1000 tokens).
var whPerToken = decimal.NewFromFloat(0.003)

// Estimate is the energy figure for one analyzed conversation.
type Estimate struct {
	// WattHours is the total estimated consumption.
	WattHours decimal.Decimal `json:"wattHours"`

	// Comparison is a human-readable equivalent for the dashboard.
	Comparison string `json:"comparison"`
}

// FromTokens estimates consumption for the given token totals (user and
// response tokens combined).
func FromTokens(totalTokens int) Estimate {
	wh := whPerToken.Mul(decimal.NewFromInt(int64(totalTokens)))
	return Estimate{
		WattHours:  wh,
		Comparison: comparisonFor(wh),
	}
}

// comparison is one rung of the graded consumption ladder.
type comparison struct {
	wattHours decimal.Decimal
	text      string
}

// comparisons is ordered by ascending watt-hours. comparisonFor picks the
// highest rung at or below the estimate, so the ladder must stay sorted.
var comparisons = []comparison{
	{decimal.NewFromInt(1), "powering a small LED bulb for an hour"},
	{decimal.NewFromInt(2), "keeping a smartwatch active for a day"},
	{decimal.NewFromInt(3), "running a small desk fan for an hour"},
	{decimal.NewFromInt(5), "charging a smartphone to about a quarter"},
	{decimal.NewFromInt(7), "a laptop sleeping for an hour"},
	{decimal.NewFromInt(10), "charging a tablet to about a fifth"},
	{decimal.NewFromInt(12), "boiling a kettle for a minute"},
	{decimal.NewFromInt(15), "a games console idling for an hour"},
	{decimal.NewFromInt(20), "an hour of television on an LED screen"},
	{decimal.NewFromInt(30), "a full smartphone charge and a half"},
	{decimal.NewFromInt(50), "a full tablet charge"},
	{decimal.NewFromInt(100), "running a refrigerator for an hour"},
}

func comparisonFor(wh decimal.Decimal) string {
	if wh.LessThan(comparisons[0].wattHours) {
		return "less than powering a small LED bulb for an hour"
	}
	best := comparisons[0]
	for _, c := range comparisons[1:] {
		if c.wattHours.GreaterThan(wh) {
			break
		}
		best = c
	}
	return "about the same as " + best.text
}
