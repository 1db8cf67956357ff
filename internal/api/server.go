// Package api exposes the settlement engine over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/likelee/payouts/internal/auth"
	"github.com/likelee/payouts/internal/service"
	"github.com/likelee/payouts/internal/storage"
)

// Server wires the services to their HTTP routes.
type Server struct {
	store       storage.Store
	settlements *service.SettlementService
	payouts     *service.PayoutService
	rates       *service.RateService
	jwt         *auth.JWTManager

	webhookSecret    string
	webhookTolerance time.Duration
	defaultCurrency  string
}

// NewServer creates a Server. The store is used directly only for the
// webhook event audit table; everything else goes through the services.
func NewServer(store storage.Store, settlements *service.SettlementService, payouts *service.PayoutService, rates *service.RateService, jwt *auth.JWTManager, webhookSecret, defaultCurrency string) *Server {
	if defaultCurrency == "" {
		defaultCurrency = "usd"
	}
	return &Server{
		store:            store,
		settlements:      settlements,
		payouts:          payouts,
		rates:            rates,
		jwt:              jwt,
		webhookSecret:    webhookSecret,
		webhookTolerance: 5 * time.Minute,
		defaultCurrency:  defaultCurrency,
	}
}

// Routes builds the router. The webhook route sits outside the auth group:
// it authenticates with the signature header instead of a bearer token.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(recordMetrics)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/webhooks/stripe", s.handleStripeWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/payouts", s.handleRequestPayout)
		r.Get("/payouts", s.handleListPayouts)
		r.Get("/payouts/{id}", s.handleGetPayout)
		r.Get("/balance", s.handleBalance)
		r.Get("/settlements", s.handleListSettlements)
		r.Get("/payout-account", s.handlePayoutAccount)

		r.Put("/rates/override", s.handleSetOverride)
		r.Put("/rates/tiers", s.handleSetTierRules)
		r.Get("/rates/tiers", s.handleGetTierRules)
		r.Get("/rates/resolve", s.handleResolveRate)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
