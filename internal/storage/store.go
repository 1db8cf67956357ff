// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/likelee/payouts/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with a uniqueness
// constraint, such as settling the same claim twice for one payment.
var ErrDuplicate = errors.New("duplicate")

// Store defines the interface for settlement storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateClaim persists a new claim. The claim.ID and claim.CreatedAt
	// fields are populated by the store when unset.
	CreateClaim(ctx context.Context, claim *models.Claim) error

	// GetClaims retrieves the claims with the given IDs.
	// Returns ErrNotFound if any requested claim is missing.
	GetClaims(ctx context.Context, claimIDs []string) ([]models.Claim, error)

	// UpsertRateOverride creates or replaces the override for an
	// (owner, payee) pair. The latest write wins.
	UpsertRateOverride(ctx context.Context, override *models.RateOverride) error

	// GetRateOverride retrieves the override for an (owner, payee) pair.
	// Returns ErrNotFound when no override is configured.
	GetRateOverride(ctx context.Context, ownerID, payeeID string) (*models.RateOverride, error)

	// ReplaceTierRules swaps an owner's entire tier ladder atomically.
	ReplaceTierRules(ctx context.Context, ownerID string, rules []models.TierRule) error

	// GetTierRules retrieves an owner's ladder ordered by ascending tier level.
	// Returns an empty slice when no ladder is configured.
	GetTierRules(ctx context.Context, ownerID string) ([]models.TierRule, error)

	// PerformanceSnapshot aggregates a payee's settled net share and settlement
	// count under one owner over [since, until).
	PerformanceSnapshot(ctx context.Context, ownerID, payeeID string, since, until int64) (models.PerformanceSnapshot, error)

	// CreateSettlement persists a new ledger row. Returns ErrDuplicate when a
	// row for the same (claim, payment ref) pair already exists.
	CreateSettlement(ctx context.Context, rec *models.SettlementRecord) error

	// GetSettlementsByPaymentRef retrieves every row written for one payment.
	GetSettlementsByPaymentRef(ctx context.Context, paymentRef string) ([]models.SettlementRecord, error)

	// ListSettlementsByPayee retrieves a payee's rows, newest first.
	ListSettlementsByPayee(ctx context.Context, payeeID string, limit int) ([]models.SettlementRecord, error)

	// AvailableBalance derives a party's withdrawable balance in one currency:
	// settlement credits minus every payout that is not failed.
	AvailableBalance(ctx context.Context, partyID, currency string) (int64, error)

	// CreatePayout persists a new payout request. The ID and RequestedAt
	// fields are populated by the store when unset.
	CreatePayout(ctx context.Context, req *models.PayoutRequest) error

	// GetPayout retrieves a payout request by ID.
	GetPayout(ctx context.Context, id string) (*models.PayoutRequest, error)

	// GetPayoutByProviderRef retrieves a payout request by its external
	// transfer identifier. Returns ErrNotFound when no request matches.
	GetPayoutByProviderRef(ctx context.Context, providerRef string) (*models.PayoutRequest, error)

	// ListPayoutsByPayee retrieves a payee's requests, newest first.
	ListPayoutsByPayee(ctx context.Context, payeeID string, limit int) ([]models.PayoutRequest, error)

	// TransitionPayout moves a payout from one status to another with a
	// conditional update. Returns false when the request was not in the
	// expected from status, leaving the row untouched. providerRef and
	// failureReason are written only when non-empty; ProcessedAt is stamped
	// when the target status is terminal.
	TransitionPayout(ctx context.Context, id string, from, to models.PayoutStatus, providerRef, failureReason string) (bool, error)

	// UpsertPayee creates or replaces a payee profile.
	UpsertPayee(ctx context.Context, payee *models.Payee) error

	// GetPayee retrieves a payee by ID.
	GetPayee(ctx context.Context, id string) (*models.Payee, error)

	// UpdatePayeeAccountStatus refreshes the provider capability flags of the
	// payee owning the given transfer account. Returns ErrNotFound when no
	// payee has that account.
	UpdatePayeeAccountStatus(ctx context.Context, providerAccountRef string, payoutsEnabled, detailsSubmitted bool, lastError string) error

	// RecordWebhookEvent appends an inbound event to the audit table.
	// Returns false when the event ID has already been recorded.
	RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) (bool, error)

	// DeleteWebhookEvent removes the audit row for a provider event ID so a
	// failed delivery can be reprocessed when the provider redelivers it.
	// Deleting an unknown event ID is a no-op.
	DeleteWebhookEvent(ctx context.Context, eventID string) error

	// Close releases any resources held by the store.
	Close() error
}
