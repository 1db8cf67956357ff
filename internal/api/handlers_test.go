package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/likelee/payouts/internal/auth"
	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/provider"
	"github.com/likelee/payouts/internal/service"
	"github.com/likelee/payouts/internal/storage"
	"github.com/likelee/payouts/internal/storage/sqlite"
)

const testWebhookSecret = "whsec_test"

// stubTransfers always succeeds with a fixed payout ref.
type stubTransfers struct {
	payoutRef string
	payoutErr error
}

func (s *stubTransfers) CreatePayout(_ context.Context, _ string, _ int64, _, _ string) (string, error) {
	return s.payoutRef, s.payoutErr
}

func (s *stubTransfers) GetAccount(_ context.Context, _ string) (provider.Account, error) {
	return provider.Account{PayoutsEnabled: true, DetailsSubmitted: true}, nil
}

type testEnv struct {
	server *httptest.Server
	store  storage.Store
	jwt    *auth.JWTManager
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "payouts-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	rates := service.NewRateService(store, 20, 30)
	settlements := service.NewSettlementService(store, rates)
	payouts := service.NewPayoutService(store, &stubTransfers{payoutRef: "po_test"}, service.PayoutConfig{
		Enabled:           true,
		MinAmountCents:    100,
		AllowedCurrencies: []string{"usd"},
		ProviderTimeout:   time.Second,
	})

	srv := NewServer(store, settlements, payouts, rates, jwtManager, testWebhookSecret, "usd")
	server := httptest.NewServer(srv.Routes())
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: store, jwt: jwtManager}
}

func (e *testEnv) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := e.jwt.Generate(userID, role)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// doJSON performs an authenticated request and decodes the JSON response.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp
}

// seed creates a payee with a transfer account and a settled claim worth
// amount cents at a zero commission rate.
func (e *testEnv) seed(t *testing.T, payeeID string, amount int64) {
	t.Helper()
	ctx := context.Background()
	if err := e.store.UpsertPayee(ctx, &models.Payee{
		ID: payeeID, DisplayName: payeeID,
		ProviderAccountRef: "acct_" + payeeID,
		PayoutsEnabled:     true, DetailsSubmitted: true,
	}); err != nil {
		t.Fatalf("failed to seed payee: %v", err)
	}
	if err := e.store.CreateSettlement(ctx, &models.SettlementRecord{
		ClaimID: "claim-" + payeeID, PayeeID: payeeID, OwnerID: "owner-1",
		GrossCents: amount, PayeeShareCents: amount, OwnerShareCents: 0,
		Currency: "usd", ExternalPaymentRef: "seed-" + payeeID,
	}); err != nil {
		t.Fatalf("failed to seed settlement: %v", err)
	}
}

func TestAuthRequired(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.doJSON(t, http.MethodGet, "/api/balance", tt.token, nil, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
		})
	}

	t.Run("healthz is open", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/healthz", "", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})
}

func TestPayoutEndpoints(t *testing.T) {
	env := setupTestServer(t)
	env.seed(t, "p1", 5000)
	token := env.token(t, "p1", auth.RolePayee)

	var created payoutResponse
	t.Run("request payout", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/payouts", token,
			map[string]any{"amount_cents": 1500, "currency": "usd"}, &created)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
		if created.Status != "paid" || created.ProviderRef != "po_test" {
			t.Errorf("unexpected payout: %+v", created)
		}
	})

	t.Run("insufficient funds is 422", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/payouts", token,
			map[string]any{"amount_cents": 100_000, "currency": "usd"}, nil)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
	})

	t.Run("bad currency is 400", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/payouts", token,
			map[string]any{"amount_cents": 500, "currency": "gbp"}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("history lists the payout", func(t *testing.T) {
		var out struct {
			Payouts []payoutResponse `json:"payouts"`
		}
		resp := env.doJSON(t, http.MethodGet, "/api/payouts", token, nil, &out)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if len(out.Payouts) != 1 || out.Payouts[0].ID != created.ID {
			t.Errorf("unexpected history: %+v", out.Payouts)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		var got payoutResponse
		resp := env.doJSON(t, http.MethodGet, "/api/payouts/"+created.ID, token, nil, &got)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if got.ID != created.ID {
			t.Errorf("ID = %q, want %q", got.ID, created.ID)
		}
	})

	t.Run("other payee cannot see it", func(t *testing.T) {
		other := env.token(t, "p2", auth.RolePayee)
		resp := env.doJSON(t, http.MethodGet, "/api/payouts/"+created.ID, other, nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("balance reflects the withdrawal", func(t *testing.T) {
		var out struct {
			AvailableCents int64 `json:"available_cents"`
		}
		resp := env.doJSON(t, http.MethodGet, "/api/balance", token, nil, &out)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if out.AvailableCents != 3500 {
			t.Errorf("available = %d, want 3500", out.AvailableCents)
		}
	})

	t.Run("settlements statement", func(t *testing.T) {
		var out struct {
			Settlements []settlementResponse `json:"settlements"`
		}
		resp := env.doJSON(t, http.MethodGet, "/api/settlements", token, nil, &out)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if len(out.Settlements) != 1 || out.Settlements[0].PayeeShareCents != 5000 {
			t.Errorf("unexpected statement: %+v", out.Settlements)
		}
	})

	t.Run("payout account status", func(t *testing.T) {
		var out struct {
			AccountRef     string `json:"account_ref"`
			PayoutsEnabled bool   `json:"payouts_enabled"`
		}
		resp := env.doJSON(t, http.MethodGet, "/api/payout-account", token, nil, &out)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if out.AccountRef != "acct_p1" || !out.PayoutsEnabled {
			t.Errorf("unexpected account: %+v", out)
		}
	})
}

func TestRateEndpoints(t *testing.T) {
	env := setupTestServer(t)
	ownerToken := env.token(t, "owner-1", auth.RoleOwner)
	payeeToken := env.token(t, "p1", auth.RolePayee)

	t.Run("payee role cannot manage rates", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPut, "/api/rates/override", payeeToken,
			map[string]any{"payee_id": "p1", "rate": 10}, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("set override clamps the rate", func(t *testing.T) {
		var out struct {
			Rate float64 `json:"rate"`
		}
		resp := env.doJSON(t, http.MethodPut, "/api/rates/override", ownerToken,
			map[string]any{"payee_id": "p1", "rate": 130}, &out)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if out.Rate != 100 {
			t.Errorf("rate = %v, want 100", out.Rate)
		}
	})

	t.Run("set and get tier rules", func(t *testing.T) {
		rules := map[string]any{"rules": []map[string]any{
			{"tier_level": 2, "rate": 15, "min_period_earnings_cents": 100000, "min_period_count": 3},
			{"tier_level": 1, "rate": 10, "min_period_earnings_cents": 500000, "min_period_count": 10},
		}}
		resp := env.doJSON(t, http.MethodPut, "/api/rates/tiers", ownerToken, rules, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var out struct {
			Rules []tierRuleBody `json:"rules"`
		}
		resp = env.doJSON(t, http.MethodGet, "/api/rates/tiers", ownerToken, nil, &out)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if len(out.Rules) != 2 || out.Rules[0].TierLevel != 1 {
			t.Errorf("unexpected rules: %+v", out.Rules)
		}
	})

	t.Run("invalid ladder is 400", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPut, "/api/rates/tiers", ownerToken,
			map[string]any{"rules": []map[string]any{}}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("resolve reports the winning layer", func(t *testing.T) {
		var out struct {
			Rate   float64 `json:"rate"`
			Source string  `json:"source"`
		}
		resp := env.doJSON(t, http.MethodGet, "/api/rates/resolve?payee_id=p1", ownerToken, nil, &out)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if out.Source != "override" || out.Rate != 100 {
			t.Errorf("unexpected resolution: %+v", out)
		}
	})

	t.Run("resolve requires payee_id", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/api/rates/resolve", ownerToken, nil, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}
