package models

// PayoutStatus is the lifecycle state of a PayoutRequest.
type PayoutStatus string

const (
	PayoutStatusRequested  PayoutStatus = "requested"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusPaid       PayoutStatus = "paid"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// Terminal reports whether the status is final. A failed payout is retried
// with a brand-new PayoutRequest, never resurrected.
func (s PayoutStatus) Terminal() bool {
	return s == PayoutStatusPaid || s == PayoutStatusFailed
}

// PayoutRequest is a payee-initiated withdrawal. Only the payout state machine
// mutates it, and only via conditional status transitions.
type PayoutRequest struct {
	// ID is the unique identifier for the request (UUID format).
	ID string

	// PayeeID is the withdrawing talent.
	PayeeID string

	// AmountCents is the requested withdrawal amount.
	AmountCents int64

	// Currency is the ISO 4217 code of the withdrawal.
	Currency string

	// Status is the current lifecycle state.
	Status PayoutStatus

	// ProviderPayoutRef is the external transfer identifier, set once the
	// provider accepts the payout. Webhook reconciliation matches on it.
	ProviderPayoutRef string

	// FailureReason is a structured, user-visible reason set on failure.
	FailureReason string

	// RequestedAt is the Unix timestamp the request was created.
	RequestedAt int64

	// ProcessedAt is the Unix timestamp the request reached a terminal state.
	// Zero while the request is still in flight.
	ProcessedAt int64
}

// Payee is the party on the receiving end of payouts.
type Payee struct {
	// ID is the unique identifier for the payee (UUID format).
	ID string

	// DisplayName is the human-readable name.
	DisplayName string

	// ProviderAccountRef is the external transfer account identifier.
	// Empty until onboarding completes.
	ProviderAccountRef string

	// PayoutsEnabled mirrors the provider's account capability flag,
	// kept fresh by account.updated webhook events.
	PayoutsEnabled bool

	// DetailsSubmitted mirrors the provider's onboarding flag.
	DetailsSubmitted bool

	// LastPayoutError is the provider's most recent disabled reason, if any.
	LastPayoutError string
}

// WebhookEvent is the append-only audit row for every verified inbound
// provider event. EventID is unique so a redelivered event is detected before
// any processing happens.
type WebhookEvent struct {
	ID         string
	EventID    string
	Type       string
	Payload    string
	ReceivedAt int64
}
