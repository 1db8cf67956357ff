package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/storage"
)

// UpsertRateOverride creates or replaces the override for an (owner, payee) pair.
func (s *SQLiteStore) UpsertRateOverride(ctx context.Context, override *models.RateOverride) error {
	if override.ID == "" {
		override.ID = uuid.New().String()
	}
	override.UpdatedAt = time.Now().Unix()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_overrides (id, owner_id, payee_id, rate, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, payee_id) DO UPDATE SET rate = excluded.rate, updated_at = excluded.updated_at`,
		override.ID, override.OwnerID, override.PayeeID, override.Rate, override.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rate override: %w", err)
	}
	return nil
}

// GetRateOverride retrieves the override for an (owner, payee) pair.
func (s *SQLiteStore) GetRateOverride(ctx context.Context, ownerID, payeeID string) (*models.RateOverride, error) {
	var o models.RateOverride
	err := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, payee_id, rate, updated_at FROM rate_overrides WHERE owner_id = ? AND payee_id = ?",
		ownerID, payeeID,
	).Scan(&o.ID, &o.OwnerID, &o.PayeeID, &o.Rate, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rate override: %w", err)
	}
	return &o, nil
}

// ReplaceTierRules swaps an owner's entire ladder in one transaction.
func (s *SQLiteStore) ReplaceTierRules(ctx context.Context, ownerID string, rules []models.TierRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tier_rules WHERE owner_id = ?", ownerID); err != nil {
		return fmt.Errorf("failed to clear tier rules: %w", err)
	}

	for i := range rules {
		r := &rules[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		r.OwnerID = ownerID
		_, err := tx.ExecContext(ctx,
			"INSERT INTO tier_rules (id, owner_id, tier_level, min_period_earnings_cents, min_period_count, rate) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, r.OwnerID, r.TierLevel, r.MinPeriodEarningsCents, r.MinPeriodCount, r.Rate,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("duplicate tier level %d: %w", r.TierLevel, storage.ErrDuplicate)
			}
			return fmt.Errorf("failed to insert tier rule: %w", err)
		}
	}

	return tx.Commit()
}

// GetTierRules retrieves an owner's ladder ordered by ascending tier level.
func (s *SQLiteStore) GetTierRules(ctx context.Context, ownerID string) ([]models.TierRule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, tier_level, min_period_earnings_cents, min_period_count, rate FROM tier_rules WHERE owner_id = ? ORDER BY tier_level ASC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tier rules: %w", err)
	}
	defer rows.Close()

	var rules []models.TierRule
	for rows.Next() {
		var r models.TierRule
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.TierLevel, &r.MinPeriodEarningsCents, &r.MinPeriodCount, &r.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan tier rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tier rules: %w", err)
	}
	return rules, nil
}

// PerformanceSnapshot aggregates settled net share and row count over [since, until).
func (s *SQLiteStore) PerformanceSnapshot(ctx context.Context, ownerID, payeeID string, since, until int64) (models.PerformanceSnapshot, error) {
	var snap models.PerformanceSnapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(payee_share_cents), 0), COUNT(*)
		FROM settlements
		WHERE owner_id = ? AND payee_id = ? AND settled_at >= ? AND settled_at < ?`,
		ownerID, payeeID, since, until,
	).Scan(&snap.EarningsCents, &snap.Count)
	if err != nil {
		return models.PerformanceSnapshot{}, fmt.Errorf("failed to aggregate performance: %w", err)
	}
	return snap, nil
}
