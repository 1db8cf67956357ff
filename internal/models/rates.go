package models

// RateOverride pins a fixed commission rate for one payee under one owner.
// Overrides have the highest precedence in rate resolution; the latest write
// wins, there is no expiry logic.
type RateOverride struct {
	// ID is the unique identifier for the override (UUID format).
	ID string

	// OwnerID is the agency the override belongs to.
	OwnerID string

	// PayeeID is the talent the override applies to.
	PayeeID string

	// Rate is the commission percentage in [0, 100]. Clamped at write time.
	Rate float64

	// UpdatedAt is the Unix timestamp of the last write.
	UpdatedAt int64
}

// TierRule is one rung of an owner's performance-tier ladder. Rules are
// evaluated in ascending TierLevel order (level 1 is the top tier); the first
// rule whose thresholds are met wins, and the last rule acts as the catch-all.
type TierRule struct {
	// ID is the unique identifier for the rule (UUID format).
	ID string

	// OwnerID is the agency that owns the ladder.
	OwnerID string

	// TierLevel orders the ladder; lower numbers are checked first.
	TierLevel int

	// MinPeriodEarningsCents is the trailing-window earnings threshold.
	MinPeriodEarningsCents int64

	// MinPeriodCount is the trailing-window settlement count threshold.
	MinPeriodCount int

	// Rate is the commission percentage in [0, 100] applied when this rule wins.
	Rate float64
}

// PerformanceSnapshot is a payee's trailing-window aggregate, derived from
// settlement history on demand. It is never stored.
type PerformanceSnapshot struct {
	// EarningsCents is the payee's summed net share over the window.
	EarningsCents int64

	// Count is the number of settlements credited in the window.
	Count int
}
