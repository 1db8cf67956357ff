package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/likelee/payouts/internal/models"
)

// payoutResponse is the wire shape of a payout request.
type payoutResponse struct {
	ID            string `json:"id"`
	PayeeID       string `json:"payee_id"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	ProviderRef   string `json:"provider_ref,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	RequestedAt   int64  `json:"requested_at"`
	ProcessedAt   int64  `json:"processed_at,omitempty"`
}

func toPayoutResponse(p *models.PayoutRequest) payoutResponse {
	return payoutResponse{
		ID:            p.ID,
		PayeeID:       p.PayeeID,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		Status:        string(p.Status),
		ProviderRef:   p.ProviderPayoutRef,
		FailureReason: p.FailureReason,
		RequestedAt:   p.RequestedAt,
		ProcessedAt:   p.ProcessedAt,
	}
}

// settlementResponse is the wire shape of a ledger row.
type settlementResponse struct {
	ID              string  `json:"id"`
	ClaimID         string  `json:"claim_id"`
	GrossCents      int64   `json:"gross_cents"`
	CommissionRate  float64 `json:"commission_rate"`
	OwnerShareCents int64   `json:"owner_share_cents"`
	PayeeShareCents int64   `json:"payee_share_cents"`
	Currency        string  `json:"currency"`
	PaymentRef      string  `json:"payment_ref"`
	SettledAt       int64   `json:"settled_at"`
}

func (s *Server) handleRequestPayout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AmountCents int64  `json:"amount_cents"`
		Currency    string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if body.Currency == "" {
		body.Currency = s.defaultCurrency
	}

	req, err := s.payouts.Request(r.Context(), userID(r.Context()), body.AmountCents, body.Currency)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayoutResponse(req))
}

func (s *Server) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.payouts.History(r.Context(), userID(r.Context()), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]payoutResponse, len(reqs))
	for i := range reqs {
		out[i] = toPayoutResponse(&reqs[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"payouts": out})
}

func (s *Server) handleGetPayout(w http.ResponseWriter, r *http.Request) {
	req, err := s.payouts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if req.PayeeID != userID(r.Context()) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, toPayoutResponse(req))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = s.defaultCurrency
	}
	balance, err := s.settlements.Balance(r.Context(), userID(r.Context()), currency)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available_cents": balance,
		"currency":        currency,
	})
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	recs, err := s.settlements.Statement(r.Context(), userID(r.Context()), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]settlementResponse, len(recs))
	for i, rec := range recs {
		out[i] = settlementResponse{
			ID:              rec.ID,
			ClaimID:         rec.ClaimID,
			GrossCents:      rec.GrossCents,
			CommissionRate:  rec.CommissionRate,
			OwnerShareCents: rec.OwnerShareCents,
			PayeeShareCents: rec.PayeeShareCents,
			Currency:        rec.Currency,
			PaymentRef:      rec.ExternalPaymentRef,
			SettledAt:       rec.SettledAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": out})
}

func (s *Server) handlePayoutAccount(w http.ResponseWriter, r *http.Request) {
	payee, err := s.payouts.AccountStatus(r.Context(), userID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payee_id":          payee.ID,
		"account_ref":       payee.ProviderAccountRef,
		"payouts_enabled":   payee.PayoutsEnabled,
		"details_submitted": payee.DetailsSubmitted,
		"last_error":        payee.LastPayoutError,
	})
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	if !requireOwner(w, r) {
		return
	}
	var body struct {
		PayeeID string  `json:"payee_id"`
		Rate    float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PayeeID == "" {
		writeError(w, http.StatusBadRequest, "payee_id and rate are required")
		return
	}

	override, err := s.rates.SetOverride(r.Context(), userID(r.Context()), body.PayeeID, body.Rate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payee_id": override.PayeeID,
		"rate":     override.Rate,
	})
}

type tierRuleBody struct {
	TierLevel              int     `json:"tier_level"`
	MinPeriodEarningsCents int64   `json:"min_period_earnings_cents"`
	MinPeriodCount         int     `json:"min_period_count"`
	Rate                   float64 `json:"rate"`
}

func (s *Server) handleSetTierRules(w http.ResponseWriter, r *http.Request) {
	if !requireOwner(w, r) {
		return
	}
	var body struct {
		Rules []tierRuleBody `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	rules := make([]models.TierRule, len(body.Rules))
	for i, b := range body.Rules {
		rules[i] = models.TierRule{
			TierLevel:              b.TierLevel,
			MinPeriodEarningsCents: b.MinPeriodEarningsCents,
			MinPeriodCount:         b.MinPeriodCount,
			Rate:                   b.Rate,
		}
	}

	saved, err := s.rates.SetTierRules(r.Context(), userID(r.Context()), rules)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": toTierRuleBodies(saved)})
}

func (s *Server) handleGetTierRules(w http.ResponseWriter, r *http.Request) {
	if !requireOwner(w, r) {
		return
	}
	rules, err := s.rates.TierRules(r.Context(), userID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": toTierRuleBodies(rules)})
}

func toTierRuleBodies(rules []models.TierRule) []tierRuleBody {
	out := make([]tierRuleBody, len(rules))
	for i, r := range rules {
		out[i] = tierRuleBody{
			TierLevel:              r.TierLevel,
			MinPeriodEarningsCents: r.MinPeriodEarningsCents,
			MinPeriodCount:         r.MinPeriodCount,
			Rate:                   r.Rate,
		}
	}
	return out
}

func (s *Server) handleResolveRate(w http.ResponseWriter, r *http.Request) {
	if !requireOwner(w, r) {
		return
	}
	payeeID := r.URL.Query().Get("payee_id")
	if payeeID == "" {
		writeError(w, http.StatusBadRequest, "payee_id is required")
		return
	}

	resolution, err := s.rates.Resolve(r.Context(), userID(r.Context()), payeeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolution)
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
