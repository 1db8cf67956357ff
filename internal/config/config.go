// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the server needs to run.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string

	// DBPath is the SQLite database file.
	DBPath string

	// JWTSecret signs API session tokens.
	JWTSecret string

	// TokenDuration is how long issued tokens stay valid.
	TokenDuration time.Duration

	// StripeSecretKey authenticates outbound provider calls.
	StripeSecretKey string

	// StripeWebhookSecret verifies inbound deliveries.
	StripeWebhookSecret string

	// DefaultCommissionRate applies when no override or ladder matches.
	DefaultCommissionRate float64

	// RateWindowDays is the trailing performance window for tier evaluation.
	RateWindowDays int

	// PayoutsEnabled is the operator kill-switch.
	PayoutsEnabled bool

	// DefaultCurrency is used when a request does not name one.
	// Must be in AllowedCurrencies.
	DefaultCurrency string

	// MinPayoutAmountCents is the smallest withdrawal accepted.
	MinPayoutAmountCents int64

	// AllowedCurrencies is the withdrawal currency allow-list.
	AllowedCurrencies []string

	// ProviderTimeout bounds the synchronous provider call.
	ProviderTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults for
// everything except the secrets.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:            envOr("LISTEN_ADDR", ":8080"),
		DBPath:                envOr("DB_PATH", "data/payouts.db"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		TokenDuration:         24 * time.Hour,
		DefaultCommissionRate: 0,
		RateWindowDays:        30,
		PayoutsEnabled:        true,
		DefaultCurrency:       "usd",
		MinPayoutAmountCents:  100,
		AllowedCurrencies:     []string{"usd"},
		ProviderTimeout:       15 * time.Second,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}

	if v := os.Getenv("DEFAULT_COMMISSION_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_COMMISSION_RATE %q: %w", v, err)
		}
		cfg.DefaultCommissionRate = rate
	}
	if v := os.Getenv("RATE_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid RATE_WINDOW_DAYS %q", v)
		}
		cfg.RateWindowDays = days
	}
	if v := os.Getenv("PAYOUTS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PAYOUTS_ENABLED %q: %w", v, err)
		}
		cfg.PayoutsEnabled = enabled
	}
	if v := os.Getenv("MIN_PAYOUT_AMOUNT_CENTS"); v != "" {
		minAmount, err := strconv.ParseInt(v, 10, 64)
		if err != nil || minAmount < 0 {
			return nil, fmt.Errorf("invalid MIN_PAYOUT_AMOUNT_CENTS %q", v)
		}
		cfg.MinPayoutAmountCents = minAmount
	}
	if v := os.Getenv("PAYOUT_ALLOWED_CURRENCIES"); v != "" {
		var currencies []string
		for _, c := range strings.Split(v, ",") {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				currencies = append(currencies, c)
			}
		}
		if len(currencies) == 0 {
			return nil, fmt.Errorf("invalid PAYOUT_ALLOWED_CURRENCIES %q", v)
		}
		cfg.AllowedCurrencies = currencies
	}
	if v := os.Getenv("PAYOUT_CURRENCY"); v != "" {
		cfg.DefaultCurrency = strings.ToLower(strings.TrimSpace(v))
	}
	found := false
	for _, c := range cfg.AllowedCurrencies {
		if c == cfg.DefaultCurrency {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("PAYOUT_CURRENCY %q is not in PAYOUT_ALLOWED_CURRENCIES", cfg.DefaultCurrency)
	}
	if v := os.Getenv("PROVIDER_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT_SECONDS %q", v)
		}
		cfg.ProviderTimeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
