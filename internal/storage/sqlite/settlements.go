package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/storage"
)

// CreateSettlement persists a new ledger row. The UNIQUE (claim_id,
// external_payment_ref) constraint is the idempotency guard: a redelivered
// payment event surfaces as storage.ErrDuplicate here.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, rec *models.SettlementRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.SettledAt == 0 {
		rec.SettledAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settlements (id, claim_id, payee_id, owner_id, gross_cents, commission_rate,
			owner_share_cents, payee_share_cents, currency, external_payment_ref, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ClaimID, rec.PayeeID, rec.OwnerID, rec.GrossCents, rec.CommissionRate,
		rec.OwnerShareCents, rec.PayeeShareCents, rec.Currency, rec.ExternalPaymentRef, rec.SettledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// GetSettlementsByPaymentRef retrieves every row written for one payment.
func (s *SQLiteStore) GetSettlementsByPaymentRef(ctx context.Context, paymentRef string) ([]models.SettlementRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_id, payee_id, owner_id, gross_cents, commission_rate,
			owner_share_cents, payee_share_cents, currency, external_payment_ref, settled_at
		FROM settlements WHERE external_payment_ref = ?`,
		paymentRef,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()
	return scanSettlements(rows)
}

// ListSettlementsByPayee retrieves a payee's rows, newest first.
func (s *SQLiteStore) ListSettlementsByPayee(ctx context.Context, payeeID string, limit int) ([]models.SettlementRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_id, payee_id, owner_id, gross_cents, commission_rate,
			owner_share_cents, payee_share_cents, currency, external_payment_ref, settled_at
		FROM settlements WHERE payee_id = ? ORDER BY settled_at DESC, id DESC LIMIT ?`,
		payeeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()
	return scanSettlements(rows)
}

// AvailableBalance derives the withdrawable balance: every settlement share
// credited to the party, minus every payout that has not failed. Requested and
// processing payouts count as spent so a payee cannot double-withdraw while a
// transfer is in flight.
func (s *SQLiteStore) AvailableBalance(ctx context.Context, partyID, currency string) (int64, error) {
	var credited int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN payee_id = ? THEN payee_share_cents ELSE 0 END), 0)
			+ COALESCE(SUM(CASE WHEN owner_id = ? THEN owner_share_cents ELSE 0 END), 0)
		FROM settlements WHERE currency = ?`,
		partyID, partyID, currency,
	).Scan(&credited)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate credits: %w", err)
	}

	var withdrawn int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM payout_requests WHERE payee_id = ? AND currency = ? AND status != ?`,
		partyID, currency, string(models.PayoutStatusFailed),
	).Scan(&withdrawn)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate payouts: %w", err)
	}

	return credited - withdrawn, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSettlements(rows rowScanner) ([]models.SettlementRecord, error) {
	var recs []models.SettlementRecord
	for rows.Next() {
		var r models.SettlementRecord
		if err := rows.Scan(&r.ID, &r.ClaimID, &r.PayeeID, &r.OwnerID, &r.GrossCents, &r.CommissionRate,
			&r.OwnerShareCents, &r.PayeeShareCents, &r.Currency, &r.ExternalPaymentRef, &r.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return recs, nil
}
