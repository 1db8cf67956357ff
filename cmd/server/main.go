package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/likelee/payouts/internal/api"
	"github.com/likelee/payouts/internal/auth"
	"github.com/likelee/payouts/internal/config"
	"github.com/likelee/payouts/internal/provider/stripe"
	"github.com/likelee/payouts/internal/service"
	"github.com/likelee/payouts/internal/storage/sqlite"
	"github.com/likelee/payouts/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	transfers := stripe.New(cfg.StripeSecretKey)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	rates := service.NewRateService(store, cfg.DefaultCommissionRate, cfg.RateWindowDays)
	settlements := service.NewSettlementService(store, rates)
	payouts := service.NewPayoutService(store, transfers, service.PayoutConfig{
		Enabled:           cfg.PayoutsEnabled,
		MinAmountCents:    cfg.MinPayoutAmountCents,
		AllowedCurrencies: cfg.AllowedCurrencies,
		ProviderTimeout:   cfg.ProviderTimeout,
	})

	srv := api.NewServer(store, settlements, payouts, rates, jwtManager, cfg.StripeWebhookSecret, cfg.DefaultCurrency)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", cfg.ListenAddr, "payouts_enabled", cfg.PayoutsEnabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
