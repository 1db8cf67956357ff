package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/likelee/payouts/internal/metrics"
	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/webhook"
)

// maxWebhookBody bounds the raw payload we are willing to verify.
const maxWebhookBody = 1 << 20

// handleStripeWebhook processes one provider delivery. The order matters:
// verify the signature over the raw body first, then record the event for
// dedupe, then dispatch. A processing failure releases the event id and
// returns 500, so the provider's redelivery of the same event is reprocessed
// rather than dropped as a duplicate.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	if err := webhook.VerifySignature(payload, sig, s.webhookSecret, s.webhookTolerance); err != nil {
		slog.Warn("webhook signature rejected", "error", err)
		metrics.WebhookRejected.Inc()
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	event, err := webhook.ParseEvent(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed event")
		return
	}
	metrics.WebhookEvents.WithLabelValues(event.Type).Inc()

	fresh, err := s.store.RecordWebhookEvent(r.Context(), &models.WebhookEvent{
		EventID: event.ID,
		Type:    event.Type,
		Payload: string(payload),
	})
	if err != nil {
		slog.Error("failed to record webhook event", "event_id", event.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !fresh {
		slog.Info("webhook event already processed", "event_id", event.ID, "type", event.Type)
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	if err := s.dispatchEvent(r.Context(), event); err != nil {
		slog.Error("webhook processing failed", "event_id", event.ID, "type", event.Type, "error", err)
		if derr := s.store.DeleteWebhookEvent(r.Context(), event.ID); derr != nil {
			slog.Error("failed to release webhook event", "event_id", event.ID, "error", derr)
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) dispatchEvent(ctx context.Context, event *webhook.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session webhook.CheckoutSession
		if err := event.DecodeObject(&session); err != nil {
			return err
		}
		claimIDs := session.ClaimIDs()
		if len(claimIDs) == 0 {
			slog.Info("checkout session without claims", "session_id", session.ID)
			return nil
		}
		_, err := s.settlements.Settle(ctx, session.ID, session.AmountTotal, session.Currency, claimIDs)
		return err

	case "payout.paid", "payout.failed", "payout.canceled":
		var payout webhook.Payout
		if err := event.DecodeObject(&payout); err != nil {
			return err
		}
		return s.payouts.Reconcile(ctx, payout.ID, payout.PayoutID(), event.Type, payout.FailureMessage)

	case "account.updated":
		var account webhook.Account
		if err := event.DecodeObject(&account); err != nil {
			return err
		}
		return s.payouts.SyncAccount(ctx, account.ID, account.PayoutsEnabled, account.DetailsSubmitted, account.Requirements.DisabledReason)

	default:
		slog.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}
}
