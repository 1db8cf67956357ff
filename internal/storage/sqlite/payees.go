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

// UpsertPayee creates or replaces a payee profile.
func (s *SQLiteStore) UpsertPayee(ctx context.Context, payee *models.Payee) error {
	if payee.ID == "" {
		payee.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payees (id, display_name, provider_account_ref, payouts_enabled, details_submitted, last_payout_error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			provider_account_ref = excluded.provider_account_ref,
			payouts_enabled = excluded.payouts_enabled,
			details_submitted = excluded.details_submitted,
			last_payout_error = excluded.last_payout_error`,
		payee.ID, payee.DisplayName, payee.ProviderAccountRef,
		boolToInt(payee.PayoutsEnabled), boolToInt(payee.DetailsSubmitted), payee.LastPayoutError,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert payee: %w", err)
	}
	return nil
}

// GetPayee retrieves a payee by ID.
func (s *SQLiteStore) GetPayee(ctx context.Context, id string) (*models.Payee, error) {
	var (
		p                 models.Payee
		enabled, detailed int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, display_name, provider_account_ref, payouts_enabled, details_submitted, last_payout_error FROM payees WHERE id = ?",
		id,
	).Scan(&p.ID, &p.DisplayName, &p.ProviderAccountRef, &enabled, &detailed, &p.LastPayoutError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payee: %w", err)
	}
	p.PayoutsEnabled = enabled == 1
	p.DetailsSubmitted = detailed == 1
	return &p, nil
}

// UpdatePayeeAccountStatus refreshes the provider capability flags of the
// payee owning the given transfer account.
func (s *SQLiteStore) UpdatePayeeAccountStatus(ctx context.Context, providerAccountRef string, payoutsEnabled, detailsSubmitted bool, lastError string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payees SET payouts_enabled = ?, details_submitted = ?, last_payout_error = ?
		WHERE provider_account_ref = ?`,
		boolToInt(payoutsEnabled), boolToInt(detailsSubmitted), lastError, providerAccountRef,
	)
	if err != nil {
		return fmt.Errorf("failed to update payee account status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RecordWebhookEvent appends an inbound event to the audit table. The unique
// event_id column turns a redelivery into a clean "already seen" signal.
func (s *SQLiteStore) RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.ReceivedAt == 0 {
		event.ReceivedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO webhook_events (id, event_id, event_type, payload, received_at) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.EventID, event.Type, event.Payload, event.ReceivedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert webhook event: %w", err)
	}
	return true, nil
}

// DeleteWebhookEvent removes the audit row for a provider event ID.
func (s *SQLiteStore) DeleteWebhookEvent(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM webhook_events WHERE event_id = ?", eventID)
	if err != nil {
		return fmt.Errorf("failed to delete webhook event: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
