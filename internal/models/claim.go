package models

// Claim represents one obligation to be paid out of a single incoming payment.
// Claims are created when a licensing agreement is priced and are immutable once
// a SettlementRecord references them.
type Claim struct {
	// ID is the unique identifier for the claim (UUID format).
	ID string

	// OwnerID is the agency that priced the claim and takes the commission.
	OwnerID string

	// PayeeID is the talent credited with the net share.
	PayeeID string

	// WeightCents is the integer minor-unit amount used for proportioning.
	// It is a weight, not a guarantee: the final allocation depends on the
	// paid total and the other claims settled in the same payment.
	WeightCents int64

	// Currency is the ISO 4217 code the claim was priced in.
	Currency string

	// CreatedAt is the Unix timestamp when the claim was priced.
	CreatedAt int64
}
