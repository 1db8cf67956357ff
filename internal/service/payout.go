package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/likelee/payouts/internal/metrics"
	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/provider"
	"github.com/likelee/payouts/internal/storage"
)

// PayoutConfig carries the operator knobs for the payout flow.
type PayoutConfig struct {
	// Enabled is the kill-switch; when false every request is rejected.
	Enabled bool

	// MinAmountCents is the smallest withdrawal accepted.
	MinAmountCents int64

	// AllowedCurrencies is the ISO 4217 allow-list.
	AllowedCurrencies []string

	// ProviderTimeout bounds the synchronous provider call.
	ProviderTimeout time.Duration
}

// PayoutService drives the payout state machine:
// requested -> processing -> paid | failed.
// The synchronous path never touches a terminal row; webhook reconciliation
// is the only way a settled outcome can change, and paid never becomes
// anything but failed.
type PayoutService struct {
	store     storage.Store
	transfers provider.TransferClient
	cfg       PayoutConfig
}

// NewPayoutService creates a PayoutService.
func NewPayoutService(store storage.Store, transfers provider.TransferClient, cfg PayoutConfig) *PayoutService {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 15 * time.Second
	}
	return &PayoutService{store: store, transfers: transfers, cfg: cfg}
}

// Request validates and executes a withdrawal. Validation failures return a
// sentinel error and create no row. Once a row exists, provider failures are
// recorded on the row and the request is returned with a nil error; the
// caller reads the outcome from Status and FailureReason.
//
// A provider timeout leaves the request in processing: the transfer may have
// gone through, and webhook reconciliation will settle the outcome.
func (s *PayoutService) Request(ctx context.Context, payeeID string, amountCents int64, currency string) (*models.PayoutRequest, error) {
	if !s.cfg.Enabled {
		return nil, ErrPayoutsDisabled
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if amountCents < s.cfg.MinAmountCents {
		return nil, ErrBelowMinimum
	}
	if !s.currencyAllowed(currency) {
		return nil, ErrUnsupportedCurrency
	}

	payee, err := s.store.GetPayee(ctx, payeeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownPayee
	}
	if err != nil {
		return nil, fmt.Errorf("request payout: %w", err)
	}

	balance, err := s.store.AvailableBalance(ctx, payeeID, currency)
	if err != nil {
		return nil, fmt.Errorf("request payout: %w", err)
	}
	if balance < amountCents {
		return nil, ErrInsufficientFunds
	}

	req := &models.PayoutRequest{
		PayeeID:     payeeID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      models.PayoutStatusRequested,
	}
	if err := s.store.CreatePayout(ctx, req); err != nil {
		return nil, fmt.Errorf("request payout: %w", err)
	}
	metrics.PayoutTransitions.WithLabelValues(string(models.PayoutStatusRequested)).Inc()

	if err := s.transition(ctx, req, models.PayoutStatusRequested, models.PayoutStatusProcessing, "", ""); err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return req, nil
	}

	if payee.ProviderAccountRef == "" {
		if err := s.transition(ctx, req, models.PayoutStatusProcessing, models.PayoutStatusFailed, "", "missing_account"); err != nil {
			return nil, err
		}
		return req, nil
	}
	if !payee.PayoutsEnabled {
		if err := s.transition(ctx, req, models.PayoutStatusProcessing, models.PayoutStatusFailed, "", "account_payouts_disabled"); err != nil {
			return nil, err
		}
		return req, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	providerRef, err := s.transfers.CreatePayout(callCtx, payee.ProviderAccountRef, amountCents, currency, req.ID)
	if provider.IsTimeout(err) {
		slog.Warn("provider payout timed out, awaiting webhook",
			"payout_id", req.ID, "payee_id", payeeID)
		return req, nil
	}
	if err != nil {
		slog.Error("provider payout failed", "payout_id", req.ID, "error", err)
		if terr := s.transition(ctx, req, models.PayoutStatusProcessing, models.PayoutStatusFailed, "", "provider_error"); terr != nil {
			return nil, terr
		}
		return req, nil
	}

	if err := s.transition(ctx, req, models.PayoutStatusProcessing, models.PayoutStatusPaid, providerRef, ""); err != nil {
		return nil, err
	}
	if req.Status == models.PayoutStatusPaid {
		slog.Info("payout paid", "payout_id", req.ID, "provider_ref", providerRef, "amount_cents", amountCents)
	}
	return req, nil
}

// transition applies one state machine step and refreshes req in place. A
// lost compare-and-swap against a row that reconciliation already drove to a
// terminal status is a no-op: the settled outcome is adopted, not overwritten.
func (s *PayoutService) transition(ctx context.Context, req *models.PayoutRequest, from, to models.PayoutStatus, providerRef, reason string) error {
	ok, err := s.store.TransitionPayout(ctx, req.ID, from, to, providerRef, reason)
	if err != nil {
		return fmt.Errorf("transition payout %s: %w", req.ID, err)
	}
	if ok {
		metrics.PayoutTransitions.WithLabelValues(string(to)).Inc()
	}
	fresh, err := s.store.GetPayout(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("transition payout %s: %w", req.ID, err)
	}
	*req = *fresh
	if !ok {
		if fresh.Status.Terminal() {
			slog.Info("payout already settled by reconciliation",
				"payout_id", req.ID, "status", fresh.Status)
			return nil
		}
		return fmt.Errorf("transition payout %s: not in %s", req.ID, from)
	}
	return nil
}

// Reconcile applies an asynchronous provider outcome. The payout is matched
// by transfer reference first; when the reference is unknown (the synchronous
// call timed out before it could be recorded) payoutID from the transfer
// metadata is tried instead, and the reference is stamped onto the row.
// Events matching neither are logged and dropped so a foreign event cannot
// fail the webhook delivery. paid may flip to failed on a late reversal;
// failed never becomes paid.
func (s *PayoutService) Reconcile(ctx context.Context, providerRef, payoutID, eventType, failureMsg string) error {
	req, err := s.store.GetPayoutByProviderRef(ctx, providerRef)
	if errors.Is(err, storage.ErrNotFound) && payoutID != "" {
		req, err = s.store.GetPayout(ctx, payoutID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("webhook for unknown payout", "provider_ref", providerRef, "event", eventType)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile payout: %w", err)
	}

	var (
		target models.PayoutStatus
		froms  []models.PayoutStatus
		reason string
	)
	switch eventType {
	case "payout.paid":
		target = models.PayoutStatusPaid
		froms = []models.PayoutStatus{models.PayoutStatusProcessing, models.PayoutStatusRequested}
	case "payout.failed", "payout.canceled":
		target = models.PayoutStatusFailed
		froms = []models.PayoutStatus{models.PayoutStatusProcessing, models.PayoutStatusRequested, models.PayoutStatusPaid}
		reason = failureMsg
		if reason == "" {
			reason = eventType
		}
	default:
		slog.Warn("unhandled payout event", "event", eventType, "provider_ref", providerRef)
		return nil
	}

	for _, from := range froms {
		ok, err := s.store.TransitionPayout(ctx, req.ID, from, target, providerRef, reason)
		if err != nil {
			return fmt.Errorf("reconcile payout %s: %w", req.ID, err)
		}
		if ok {
			metrics.PayoutTransitions.WithLabelValues(string(target)).Inc()
			slog.Info("payout reconciled", "payout_id", req.ID, "from", from, "to", target)
			return nil
		}
	}
	slog.Info("payout already in a compatible state", "payout_id", req.ID, "status", req.Status, "event", eventType)
	return nil
}

// Get returns one payout request.
func (s *PayoutService) Get(ctx context.Context, id string) (*models.PayoutRequest, error) {
	return s.store.GetPayout(ctx, id)
}

// History returns a payee's payout requests, newest first.
func (s *PayoutService) History(ctx context.Context, payeeID string, limit int) ([]models.PayoutRequest, error) {
	return s.store.ListPayoutsByPayee(ctx, payeeID, limit)
}

// AccountStatus combines the stored payee profile with a live provider
// account lookup. The provider call is best effort: when it fails the stored
// flags are returned as-is.
func (s *PayoutService) AccountStatus(ctx context.Context, payeeID string) (*models.Payee, error) {
	payee, err := s.store.GetPayee(ctx, payeeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownPayee
	}
	if err != nil {
		return nil, fmt.Errorf("account status: %w", err)
	}
	if payee.ProviderAccountRef == "" {
		return payee, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	account, err := s.transfers.GetAccount(callCtx, payee.ProviderAccountRef)
	if err != nil {
		slog.Warn("provider account lookup failed", "payee_id", payeeID, "error", err)
		return payee, nil
	}

	payee.PayoutsEnabled = account.PayoutsEnabled
	payee.DetailsSubmitted = account.DetailsSubmitted
	payee.LastPayoutError = account.DisabledReason
	if err := s.store.UpsertPayee(ctx, payee); err != nil {
		return nil, fmt.Errorf("account status: %w", err)
	}
	return payee, nil
}

// SyncAccount refreshes stored capability flags from an account.updated
// webhook event.
func (s *PayoutService) SyncAccount(ctx context.Context, providerAccountRef string, payoutsEnabled, detailsSubmitted bool, disabledReason string) error {
	err := s.store.UpdatePayeeAccountStatus(ctx, providerAccountRef, payoutsEnabled, detailsSubmitted, disabledReason)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("account update for unknown payee", "account_ref", providerAccountRef)
		return nil
	}
	return err
}

func (s *PayoutService) currencyAllowed(currency string) bool {
	for _, c := range s.cfg.AllowedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}
