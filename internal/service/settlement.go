package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/likelee/payouts/internal/calculator"
	"github.com/likelee/payouts/internal/metrics"
	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/storage"
)

// SettlementService turns a paid total into per-claim ledger rows: allocate
// the total across the claim batch, resolve each claim's commission rate,
// split, and persist.
type SettlementService struct {
	store storage.Store
	rates *RateService
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, rates *RateService) *SettlementService {
	return &SettlementService{store: store, rates: rates}
}

// Settle processes one payment event. The allocation always runs over the
// FULL claim batch so a partially settled payment produces identical amounts
// on retry; claims that already have a row for this payment ref are skipped.
// A fully settled payment returns the existing rows untouched.
func (s *SettlementService) Settle(ctx context.Context, paymentRef string, totalCents int64, currency string, claimIDs []string) ([]models.SettlementRecord, error) {
	if len(claimIDs) == 0 {
		return nil, ErrNoClaims
	}
	if paymentRef == "" {
		return nil, errors.New("settle: missing payment ref")
	}

	claims, err := s.store.GetClaims(ctx, claimIDs)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	existing, err := s.store.GetSettlementsByPaymentRef(ctx, paymentRef)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	settled := make(map[string]bool, len(existing))
	for _, rec := range existing {
		settled[rec.ClaimID] = true
	}
	if len(existing) >= len(claims) {
		slog.Info("payment already settled", "payment_ref", paymentRef, "rows", len(existing))
		metrics.DuplicateDeliveries.Inc()
		return existing, nil
	}

	weighted := make([]calculator.Weighted, len(claims))
	for i, c := range claims {
		weighted[i] = calculator.Weighted{ClaimID: c.ID, Weight: c.WeightCents}
	}
	shares, err := calculator.Allocate(totalCents, weighted)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	// Build every row before persisting any, so a rate lookup failure on the
	// last claim cannot leave a half-written batch behind.
	rows := make([]models.SettlementRecord, 0, len(claims))
	for _, c := range claims {
		gross := shares[c.ID]
		resolution, err := s.rates.Resolve(ctx, c.OwnerID, c.PayeeID)
		if err != nil {
			return nil, fmt.Errorf("settle claim %s: %w", c.ID, err)
		}
		ownerShare, payeeShare := calculator.SplitCommission(gross, resolution.Rate)
		rows = append(rows, models.SettlementRecord{
			ClaimID:            c.ID,
			PayeeID:            c.PayeeID,
			OwnerID:            c.OwnerID,
			GrossCents:         gross,
			CommissionRate:     resolution.Rate,
			OwnerShareCents:    ownerShare,
			PayeeShareCents:    payeeShare,
			Currency:           currency,
			ExternalPaymentRef: paymentRef,
		})
	}

	written := existing
	var errs []error
	for i := range rows {
		rec := &rows[i]
		if settled[rec.ClaimID] {
			continue
		}
		err := s.store.CreateSettlement(ctx, rec)
		if errors.Is(err, storage.ErrDuplicate) {
			// A concurrent delivery won the race for this claim.
			metrics.DuplicateDeliveries.Inc()
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("settle claim %s: %w", rec.ClaimID, err))
			continue
		}
		metrics.SettlementsWritten.Inc()
		written = append(written, *rec)
		slog.Info("settlement written",
			"claim_id", rec.ClaimID,
			"payment_ref", paymentRef,
			"gross_cents", rec.GrossCents,
			"rate", rec.CommissionRate)
	}
	if len(errs) > 0 {
		return written, errors.Join(errs...)
	}
	return written, nil
}

// Statement returns a payee's settlement rows, newest first.
func (s *SettlementService) Statement(ctx context.Context, payeeID string, limit int) ([]models.SettlementRecord, error) {
	return s.store.ListSettlementsByPayee(ctx, payeeID, limit)
}

// Balance derives a party's withdrawable balance in the given currency.
func (s *SettlementService) Balance(ctx context.Context, partyID, currency string) (int64, error) {
	return s.store.AvailableBalance(ctx, partyID, currency)
}
