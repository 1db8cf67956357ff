package service

import "errors"

// Sentinel errors returned by the services. The API layer maps these to HTTP
// status codes; everything else is a 500.
var (
	// ErrPayoutsDisabled means the operator kill-switch is off.
	ErrPayoutsDisabled = errors.New("payouts are disabled")

	// ErrInvalidAmount means the requested amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrBelowMinimum means the requested amount is under the configured floor.
	ErrBelowMinimum = errors.New("amount is below the payout minimum")

	// ErrUnsupportedCurrency means the currency is not in the allow-list.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrInsufficientFunds means the derived balance cannot cover the request.
	// No payout row is created when this is returned.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownPayee means the payee does not exist.
	ErrUnknownPayee = errors.New("unknown payee")

	// ErrNoClaims means a settlement was attempted with an empty claim batch.
	ErrNoClaims = errors.New("no claims to settle")
)
