package calculator

import (
	"sort"

	"github.com/likelee/payouts/internal/models"
)

// EvaluateTiers walks an owner's tier ladder in ascending TierLevel order and
// returns the rate of the first rule whose earnings AND count thresholds are
// both met by the snapshot. The last rule is the catch-all: it wins even when
// the snapshot misses its thresholds, so a configured ladder always resolves.
//
// The boolean result is false only when the ladder is empty.
func EvaluateTiers(rules []models.TierRule, snap models.PerformanceSnapshot) (float64, bool) {
	if len(rules) == 0 {
		return 0, false
	}

	ordered := make([]models.TierRule, len(rules))
	copy(ordered, rules)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].TierLevel < ordered[j].TierLevel
	})

	for _, r := range ordered[:len(ordered)-1] {
		if snap.EarningsCents >= r.MinPeriodEarningsCents && snap.Count >= r.MinPeriodCount {
			return r.Rate, true
		}
	}
	return ordered[len(ordered)-1].Rate, true
}
