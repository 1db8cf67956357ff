package calculator

import (
	"testing"

	"github.com/likelee/payouts/internal/models"
)

func TestEvaluateTiers(t *testing.T) {
	ladder := []models.TierRule{
		{TierLevel: 1, MinPeriodEarningsCents: 500_000, MinPeriodCount: 10, Rate: 10},
		{TierLevel: 2, MinPeriodEarningsCents: 100_000, MinPeriodCount: 3, Rate: 15},
		{TierLevel: 3, MinPeriodEarningsCents: 0, MinPeriodCount: 0, Rate: 20},
	}

	tests := []struct {
		name   string
		rules  []models.TierRule
		snap   models.PerformanceSnapshot
		want   float64
		wantOK bool
	}{
		{
			name:   "top tier when both thresholds met",
			rules:  ladder,
			snap:   models.PerformanceSnapshot{EarningsCents: 600_000, Count: 12},
			want:   10,
			wantOK: true,
		},
		{
			name:   "earnings alone is not enough",
			rules:  ladder,
			snap:   models.PerformanceSnapshot{EarningsCents: 600_000, Count: 9},
			want:   15,
			wantOK: true,
		},
		{
			name:   "count alone is not enough",
			rules:  ladder,
			snap:   models.PerformanceSnapshot{EarningsCents: 400_000, Count: 50},
			want:   15,
			wantOK: true,
		},
		{
			name:   "middle tier",
			rules:  ladder,
			snap:   models.PerformanceSnapshot{EarningsCents: 100_000, Count: 3},
			want:   15,
			wantOK: true,
		},
		{
			name:   "falls through to catch-all",
			rules:  ladder,
			snap:   models.PerformanceSnapshot{EarningsCents: 0, Count: 0},
			want:   20,
			wantOK: true,
		},
		{
			name: "last rule wins even with unmet thresholds",
			rules: []models.TierRule{
				{TierLevel: 1, MinPeriodEarningsCents: 500_000, MinPeriodCount: 10, Rate: 10},
				{TierLevel: 2, MinPeriodEarningsCents: 100_000, MinPeriodCount: 3, Rate: 15},
			},
			snap:   models.PerformanceSnapshot{EarningsCents: 5, Count: 1},
			want:   15,
			wantOK: true,
		},
		{
			name: "rules evaluated in tier order regardless of slice order",
			rules: []models.TierRule{
				{TierLevel: 3, MinPeriodEarningsCents: 0, MinPeriodCount: 0, Rate: 20},
				{TierLevel: 1, MinPeriodEarningsCents: 500_000, MinPeriodCount: 10, Rate: 10},
				{TierLevel: 2, MinPeriodEarningsCents: 100_000, MinPeriodCount: 3, Rate: 15},
			},
			snap:   models.PerformanceSnapshot{EarningsCents: 600_000, Count: 12},
			want:   10,
			wantOK: true,
		},
		{
			name: "single rule is always the catch-all",
			rules: []models.TierRule{
				{TierLevel: 1, MinPeriodEarningsCents: 1_000_000, MinPeriodCount: 100, Rate: 18},
			},
			snap:   models.PerformanceSnapshot{},
			want:   18,
			wantOK: true,
		},
		{
			name:   "empty ladder resolves nothing",
			rules:  nil,
			snap:   models.PerformanceSnapshot{EarningsCents: 600_000, Count: 12},
			want:   0,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EvaluateTiers(tt.rules, tt.snap)
			if ok != tt.wantOK {
				t.Fatalf("EvaluateTiers() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("EvaluateTiers() rate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateTiersDoesNotMutateInput(t *testing.T) {
	rules := []models.TierRule{
		{TierLevel: 2, Rate: 15},
		{TierLevel: 1, MinPeriodEarningsCents: 100, MinPeriodCount: 1, Rate: 10},
	}
	if _, ok := EvaluateTiers(rules, models.PerformanceSnapshot{}); !ok {
		t.Fatal("EvaluateTiers() ok = false, want true")
	}
	if rules[0].TierLevel != 2 || rules[1].TierLevel != 1 {
		t.Errorf("input order mutated: %v", rules)
	}
}
