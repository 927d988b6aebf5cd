package energy

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromTokens(t *testing.T) {
	tests := []struct {
		tokens    int
		wantWh    string
		wantsLess bool
	}{
		{0, "0", true},
		{100, "0.3", true},       // 0.3 Wh, below the first rung
		{1000, "3", false},       // 3 Wh
		{10000, "30", false},     // 30 Wh
		{1000000, "3000", false}, // past the top rung
	}

	for _, tt := range tests {
		got := FromTokens(tt.tokens)
		if !got.WattHours.Equal(decimal.RequireFromString(tt.wantWh)) {
			t.Errorf("FromTokens(%d).WattHours = %s, want %s", tt.tokens, got.WattHours, tt.wantWh)
		}
		isLess := strings.HasPrefix(got.Comparison, "less than")
		if isLess != tt.wantsLess {
			t.Errorf("FromTokens(%d).Comparison = %q", tt.tokens, got.Comparison)
		}
	}
}

func TestComparisonFor_PicksHighestRungAtOrBelow(t *testing.T) {
	tests := []struct {
		wh   string
		want string
	}{
		{"1", "powering a small LED bulb for an hour"},
		{"2.9", "keeping a smartwatch active for a day"},
		{"3", "running a small desk fan for an hour"},
		{"99", "a full tablet charge"},
		{"100", "running a refrigerator for an hour"},
		{"5000", "running a refrigerator for an hour"},
	}

	for _, tt := range tests {
		got := comparisonFor(decimal.RequireFromString(tt.wh))
		if got != "about the same as "+tt.want {
			t.Errorf("comparisonFor(%s) = %q, want suffix %q", tt.wh, got, tt.want)
		}
	}
}
