package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is the outer envelope of a provider delivery. Data.Raw holds the
// event object untouched; the typed accessors decode it on demand.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Raw json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutSession is the payment object carried by checkout.session.completed.
// Metadata.claim_ids lists the claims to settle, comma separated.
type CheckoutSession struct {
	ID          string            `json:"id"`
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

// ClaimIDs splits the claim_ids metadata entry into a clean list.
func (c *CheckoutSession) ClaimIDs() []string {
	raw := c.Metadata["claim_ids"]
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Payout is the transfer object carried by payout.* events.
type Payout struct {
	ID             string            `json:"id"`
	FailureMessage string            `json:"failure_message"`
	Metadata       map[string]string `json:"metadata"`
}

// PayoutID returns the engine's payout id attached as metadata when the
// transfer was created, or "" for transfers created elsewhere.
func (p *Payout) PayoutID() string {
	return p.Metadata["payout_id"]
}

// Account is the connected account object carried by account.updated.
type Account struct {
	ID               string `json:"id"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
	Requirements     struct {
		DisabledReason string `json:"disabled_reason"`
	} `json:"requirements"`
}

// ParseEvent decodes the envelope of a verified delivery.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("webhook: malformed event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("webhook: event missing id or type")
	}
	return &event, nil
}

// DecodeObject unmarshals the inner event object into dst.
func (e *Event) DecodeObject(dst any) error {
	if err := json.Unmarshal(e.Data.Raw, dst); err != nil {
		return fmt.Errorf("webhook: malformed %s object: %w", e.Type, err)
	}
	return nil
}
