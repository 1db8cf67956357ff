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

// CreatePayout persists a new payout request.
func (s *SQLiteStore) CreatePayout(ctx context.Context, req *models.PayoutRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.RequestedAt == 0 {
		req.RequestedAt = time.Now().Unix()
	}
	if req.Status == "" {
		req.Status = models.PayoutStatusRequested
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payout_requests (id, payee_id, amount_cents, currency, status,
			provider_payout_ref, failure_reason, requested_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.PayeeID, req.AmountCents, req.Currency, string(req.Status),
		req.ProviderPayoutRef, req.FailureReason, req.RequestedAt, req.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payout request: %w", err)
	}
	return nil
}

// GetPayout retrieves a payout request by ID.
func (s *SQLiteStore) GetPayout(ctx context.Context, id string) (*models.PayoutRequest, error) {
	return s.getPayoutBy(ctx, "id = ?", id)
}

// GetPayoutByProviderRef retrieves a payout request by its external transfer
// identifier.
func (s *SQLiteStore) GetPayoutByProviderRef(ctx context.Context, providerRef string) (*models.PayoutRequest, error) {
	if providerRef == "" {
		return nil, storage.ErrNotFound
	}
	return s.getPayoutBy(ctx, "provider_payout_ref = ?", providerRef)
}

func (s *SQLiteStore) getPayoutBy(ctx context.Context, where string, arg any) (*models.PayoutRequest, error) {
	var (
		p      models.PayoutRequest
		status string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, payee_id, amount_cents, currency, status,
			provider_payout_ref, failure_reason, requested_at, processed_at
		FROM payout_requests WHERE `+where,
		arg,
	).Scan(&p.ID, &p.PayeeID, &p.AmountCents, &p.Currency, &status,
		&p.ProviderPayoutRef, &p.FailureReason, &p.RequestedAt, &p.ProcessedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payout request: %w", err)
	}
	p.Status = models.PayoutStatus(status)
	return &p, nil
}

// ListPayoutsByPayee retrieves a payee's requests, newest first.
func (s *SQLiteStore) ListPayoutsByPayee(ctx context.Context, payeeID string, limit int) ([]models.PayoutRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payee_id, amount_cents, currency, status,
			provider_payout_ref, failure_reason, requested_at, processed_at
		FROM payout_requests WHERE payee_id = ? ORDER BY requested_at DESC, id DESC LIMIT ?`,
		payeeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payout requests: %w", err)
	}
	defer rows.Close()

	var reqs []models.PayoutRequest
	for rows.Next() {
		var (
			p      models.PayoutRequest
			status string
		)
		if err := rows.Scan(&p.ID, &p.PayeeID, &p.AmountCents, &p.Currency, &status,
			&p.ProviderPayoutRef, &p.FailureReason, &p.RequestedAt, &p.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout request: %w", err)
		}
		p.Status = models.PayoutStatus(status)
		reqs = append(reqs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payout requests: %w", err)
	}
	return reqs, nil
}

// TransitionPayout performs a compare-and-swap on the status column. The
// WHERE clause carries the expected from status, so a concurrent writer or a
// redelivered webhook sees zero rows affected instead of clobbering state.
func (s *SQLiteStore) TransitionPayout(ctx context.Context, id string, from, to models.PayoutStatus, providerRef, failureReason string) (bool, error) {
	var processedAt int64
	if to.Terminal() {
		processedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE payout_requests
		SET status = ?,
			provider_payout_ref = CASE WHEN ? != '' THEN ? ELSE provider_payout_ref END,
			failure_reason = CASE WHEN ? != '' THEN ? ELSE failure_reason END,
			processed_at = CASE WHEN ? != 0 THEN ? ELSE processed_at END
		WHERE id = ? AND status = ?`,
		string(to), providerRef, providerRef, failureReason, failureReason,
		processedAt, processedAt, id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition payout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}
