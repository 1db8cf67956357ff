package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/likelee/payouts/internal/calculator"
	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/storage"
)

// Rate sources, most to least specific.
const (
	RateSourceOverride = "override"
	RateSourceTier     = "tier"
	RateSourceDefault  = "default"
)

// RateResolution is the outcome of layered rate lookup: the winning rate and
// where it came from.
type RateResolution struct {
	Rate   float64 `json:"rate"`
	Source string  `json:"source"`
}

// RateService resolves commission rates through the override > tier > default
// layering and manages the rule tables.
type RateService struct {
	store       storage.Store
	defaultRate float64
	window      time.Duration

	// now is swapped in tests to pin the trailing window.
	now func() time.Time
}

// NewRateService creates a RateService. defaultRate is the fallback applied
// when neither an override nor a tier ladder exists; windowDays is the length
// of the trailing performance window used for tier evaluation.
func NewRateService(store storage.Store, defaultRate float64, windowDays int) *RateService {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &RateService{
		store:       store,
		defaultRate: clampRate(defaultRate),
		window:      time.Duration(windowDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

// Resolve returns the commission rate for an (owner, payee) pair at this
// moment. Precedence: a pinned override beats the tier ladder, which beats the
// configured default. Tier evaluation derives the payee's trailing-window
// performance from settlement history on every call.
func (s *RateService) Resolve(ctx context.Context, ownerID, payeeID string) (RateResolution, error) {
	override, err := s.store.GetRateOverride(ctx, ownerID, payeeID)
	if err == nil {
		return RateResolution{Rate: clampRate(override.Rate), Source: RateSourceOverride}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return RateResolution{}, fmt.Errorf("resolve rate: %w", err)
	}

	rules, err := s.store.GetTierRules(ctx, ownerID)
	if err != nil {
		return RateResolution{}, fmt.Errorf("resolve rate: %w", err)
	}
	if len(rules) > 0 {
		until := s.now().Unix()
		since := s.now().Add(-s.window).Unix()
		snap, err := s.store.PerformanceSnapshot(ctx, ownerID, payeeID, since, until)
		if err != nil {
			return RateResolution{}, fmt.Errorf("resolve rate: %w", err)
		}
		if rate, ok := calculator.EvaluateTiers(rules, snap); ok {
			return RateResolution{Rate: clampRate(rate), Source: RateSourceTier}, nil
		}
	}

	return RateResolution{Rate: s.defaultRate, Source: RateSourceDefault}, nil
}

// SetOverride pins a rate for an (owner, payee) pair. The rate is clamped to
// [0, 100] before it is stored.
func (s *RateService) SetOverride(ctx context.Context, ownerID, payeeID string, rate float64) (*models.RateOverride, error) {
	override := &models.RateOverride{
		OwnerID: ownerID,
		PayeeID: payeeID,
		Rate:    clampRate(rate),
	}
	if err := s.store.UpsertRateOverride(ctx, override); err != nil {
		return nil, fmt.Errorf("set override: %w", err)
	}
	return override, nil
}

// SetTierRules replaces an owner's ladder. Rules must carry distinct tier
// levels; rates are clamped to [0, 100] before storage.
func (s *RateService) SetTierRules(ctx context.Context, ownerID string, rules []models.TierRule) ([]models.TierRule, error) {
	if len(rules) == 0 {
		return nil, errors.New("tier ladder must have at least one rule")
	}

	cleaned := make([]models.TierRule, len(rules))
	copy(cleaned, rules)
	seen := make(map[int]bool, len(cleaned))
	for i := range cleaned {
		r := &cleaned[i]
		if r.TierLevel <= 0 {
			return nil, fmt.Errorf("tier level %d must be positive", r.TierLevel)
		}
		if seen[r.TierLevel] {
			return nil, fmt.Errorf("duplicate tier level %d", r.TierLevel)
		}
		seen[r.TierLevel] = true
		if r.MinPeriodEarningsCents < 0 || r.MinPeriodCount < 0 {
			return nil, fmt.Errorf("tier level %d has negative thresholds", r.TierLevel)
		}
		r.Rate = clampRate(r.Rate)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].TierLevel < cleaned[j].TierLevel })

	if err := s.store.ReplaceTierRules(ctx, ownerID, cleaned); err != nil {
		return nil, fmt.Errorf("set tier rules: %w", err)
	}
	return cleaned, nil
}

// TierRules returns an owner's ladder in evaluation order.
func (s *RateService) TierRules(ctx context.Context, ownerID string) ([]models.TierRule, error) {
	return s.store.GetTierRules(ctx, ownerID)
}

func clampRate(rate float64) float64 {
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}
