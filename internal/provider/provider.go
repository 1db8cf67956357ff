// Package provider defines the interface the settlement engine uses to talk
// to an external money-movement provider. The stripe subpackage is the real
// implementation; tests substitute fakes.
package provider

import (
	"context"
	"errors"
	"net"
)

// Account is the provider-side view of a payee's transfer account.
type Account struct {
	PayoutsEnabled   bool
	DetailsSubmitted bool
	DisabledReason   string
}

// TransferClient moves money to connected accounts.
type TransferClient interface {
	// CreatePayout asks the provider to transfer amountCents to the given
	// account. payoutID dedupes retried calls as the provider-side
	// idempotency key and rides along as transfer metadata, so asynchronous
	// payout events can be matched back even when this call times out before
	// returning the provider's identifier. Returns that identifier.
	CreatePayout(ctx context.Context, accountRef string, amountCents int64, currency, payoutID string) (string, error)

	// GetAccount fetches the current capability flags for an account.
	GetAccount(ctx context.Context, accountRef string) (Account, error)
}

// IsTimeout reports whether err means the provider call may still be in
// flight: the caller must not assume the transfer failed.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
