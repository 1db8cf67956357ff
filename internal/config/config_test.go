package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if !cfg.PayoutsEnabled || cfg.MinPayoutAmountCents != 100 || cfg.RateWindowDays != 30 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.AllowedCurrencies) != 1 || cfg.AllowedCurrencies[0] != "usd" {
		t.Errorf("AllowedCurrencies = %v", cfg.AllowedCurrencies)
	}
	if cfg.ProviderTimeout != 15*time.Second {
		t.Errorf("ProviderTimeout = %v", cfg.ProviderTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DEFAULT_COMMISSION_RATE", "17.5")
	t.Setenv("RATE_WINDOW_DAYS", "90")
	t.Setenv("PAYOUTS_ENABLED", "false")
	t.Setenv("MIN_PAYOUT_AMOUNT_CENTS", "2500")
	t.Setenv("PAYOUT_ALLOWED_CURRENCIES", "USD, eur")
	t.Setenv("PAYOUT_CURRENCY", "EUR")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DefaultCommissionRate != 17.5 || cfg.RateWindowDays != 90 {
		t.Errorf("unexpected rates config: %+v", cfg)
	}
	if cfg.PayoutsEnabled || cfg.MinPayoutAmountCents != 2500 {
		t.Errorf("unexpected payout config: %+v", cfg)
	}
	if len(cfg.AllowedCurrencies) != 2 || cfg.AllowedCurrencies[0] != "usd" || cfg.AllowedCurrencies[1] != "eur" {
		t.Errorf("AllowedCurrencies = %v", cfg.AllowedCurrencies)
	}
	if cfg.DefaultCurrency != "eur" {
		t.Errorf("DefaultCurrency = %q, want eur", cfg.DefaultCurrency)
	}
	if cfg.ProviderTimeout != 5*time.Second {
		t.Errorf("ProviderTimeout = %v", cfg.ProviderTimeout)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad rate", key: "DEFAULT_COMMISSION_RATE", value: "twenty"},
		{name: "bad window", key: "RATE_WINDOW_DAYS", value: "0"},
		{name: "bad kill-switch", key: "PAYOUTS_ENABLED", value: "maybe"},
		{name: "negative minimum", key: "MIN_PAYOUT_AMOUNT_CENTS", value: "-1"},
		{name: "bad timeout", key: "PROVIDER_TIMEOUT_SECONDS", value: "-5"},
		{name: "default currency outside allow-list", key: "PAYOUT_CURRENCY", value: "gbp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing STRIPE_WEBHOOK_SECRET")
	}
}
