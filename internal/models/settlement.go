package models

// SettlementRecord is the ledger row produced per claim per payment event.
// Rows are append-only; the (ClaimID, ExternalPaymentRef) pair is unique so a
// redelivered webhook can never double-credit a claim.
type SettlementRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// ClaimID is the claim this row settles.
	ClaimID string

	// PayeeID is the talent credited with PayeeShareCents.
	PayeeID string

	// OwnerID is the commission-taking agency credited with OwnerShareCents.
	OwnerID string

	// GrossCents is the claim's allocated slice of the paid total.
	GrossCents int64

	// CommissionRate is the resolved percentage applied to GrossCents.
	CommissionRate float64

	// OwnerShareCents is floor(GrossCents * rate) with the rate carried at
	// basis-point precision.
	OwnerShareCents int64

	// PayeeShareCents is GrossCents - OwnerShareCents. Always computed as the
	// remainder so OwnerShareCents + PayeeShareCents == GrossCents holds.
	PayeeShareCents int64

	// Currency is the ISO 4217 code of the payment.
	Currency string

	// ExternalPaymentRef is the provider's checkout/session identifier; the
	// idempotency key together with ClaimID.
	ExternalPaymentRef string

	// SettledAt is the Unix timestamp the row was written.
	SettledAt int64
}
