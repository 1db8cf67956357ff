// Package metrics defines the Prometheus instruments for the settlement engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsWritten counts ledger rows persisted.
	SettlementsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payouts_settlements_written_total",
		Help: "Number of settlement ledger rows written.",
	})

	// DuplicateDeliveries counts payment events that were already fully settled.
	DuplicateDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payouts_duplicate_deliveries_total",
		Help: "Number of payment events short-circuited by the idempotency guard.",
	})

	// PayoutTransitions counts state machine moves by target status.
	PayoutTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_payout_transitions_total",
		Help: "Number of payout status transitions applied.",
	}, []string{"to"})

	// WebhookEvents counts verified inbound provider events by type.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_webhook_events_total",
		Help: "Number of verified webhook events received.",
	}, []string{"type"})

	// WebhookRejected counts deliveries that failed signature verification.
	WebhookRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payouts_webhook_rejected_total",
		Help: "Number of webhook deliveries rejected for a bad signature.",
	})

	// RequestDuration observes HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payouts_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)
