package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/provider"
	"github.com/likelee/payouts/internal/storage"
	"github.com/likelee/payouts/internal/storage/sqlite"
)

// newTestStore creates an on-disk SQLite store in a temp directory.
func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "payouts-svc-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// fakeTransfers is a scriptable provider.TransferClient. onCreatePayout, when
// set, runs while the provider call is in flight; tests use it to interleave
// concurrent writes.
type fakeTransfers struct {
	payoutRef      string
	payoutErr      error
	account        provider.Account
	accErr         error
	onCreatePayout func(payoutID string)

	calls []fakeCall
}

type fakeCall struct {
	accountRef  string
	amountCents int64
	currency    string
	payoutID    string
}

func (f *fakeTransfers) CreatePayout(_ context.Context, accountRef string, amountCents int64, currency, payoutID string) (string, error) {
	f.calls = append(f.calls, fakeCall{accountRef, amountCents, currency, payoutID})
	if f.onCreatePayout != nil {
		f.onCreatePayout(payoutID)
	}
	return f.payoutRef, f.payoutErr
}

func (f *fakeTransfers) GetAccount(_ context.Context, _ string) (provider.Account, error) {
	return f.account, f.accErr
}

// seedClaim creates a claim and returns it.
func seedClaim(t *testing.T, store storage.Store, ownerID, payeeID string, weight int64) *models.Claim {
	t.Helper()
	claim := &models.Claim{OwnerID: ownerID, PayeeID: payeeID, WeightCents: weight, Currency: "usd"}
	if err := store.CreateClaim(context.Background(), claim); err != nil {
		t.Fatalf("failed to seed claim: %v", err)
	}
	return claim
}

// seedPayee creates a payee with a working transfer account.
func seedPayee(t *testing.T, store storage.Store, id string) *models.Payee {
	t.Helper()
	payee := &models.Payee{ID: id, DisplayName: id, ProviderAccountRef: "acct_" + id, PayoutsEnabled: true, DetailsSubmitted: true}
	if err := store.UpsertPayee(context.Background(), payee); err != nil {
		t.Fatalf("failed to seed payee: %v", err)
	}
	return payee
}
