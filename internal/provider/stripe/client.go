// Package stripe is the Stripe-backed provider.TransferClient. It speaks the
// form-encoded v1 API directly: payouts are created on behalf of connected
// accounts via the Stripe-Account header.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/likelee/payouts/internal/provider"
)

const defaultBaseURL = "https://api.stripe.com"

// Ensure Client implements provider.TransferClient
var _ provider.TransferClient = (*Client)(nil)

// Client calls the Stripe v1 API.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host. Used by tests and
// local stripe stand-ins.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New creates a Client authenticated with the given secret key.
func New(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		http:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the error envelope Stripe returns on non-2xx responses.
type apiError struct {
	Err struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Error is a failed Stripe API call.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stripe: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("stripe: request failed with status %d", e.Status)
}

// CreatePayout creates a payout on the connected account's Stripe balance.
// The engine's payout id is attached as metadata so webhook events carry it
// back.
func (c *Client) CreatePayout(ctx context.Context, accountRef string, amountCents int64, currency, payoutID string) (string, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	if payoutID != "" {
		form.Set("metadata[payout_id]", payoutID)
	}

	headers := map[string]string{
		"Stripe-Account":  accountRef,
		"Idempotency-Key": payoutID,
	}

	var payout struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payouts", form, headers, &payout); err != nil {
		return "", err
	}
	return payout.ID, nil
}

// GetAccount fetches a connected account's capability flags.
func (c *Client) GetAccount(ctx context.Context, accountRef string) (provider.Account, error) {
	var account struct {
		PayoutsEnabled   bool `json:"payouts_enabled"`
		DetailsSubmitted bool `json:"details_submitted"`
		Requirements     struct {
			DisabledReason string `json:"disabled_reason"`
		} `json:"requirements"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(accountRef), nil, nil, &account); err != nil {
		return provider.Account{}, err
	}
	return provider.Account{
		PayoutsEnabled:   account.PayoutsEnabled,
		DetailsSubmitted: account.DetailsSubmitted,
		DisabledReason:   account.Requirements.DisabledReason,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, headers map[string]string, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("stripe: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("stripe: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("stripe: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope apiError
		_ = json.Unmarshal(payload, &envelope)
		return &Error{
			Status:  resp.StatusCode,
			Code:    envelope.Err.Code,
			Message: envelope.Err.Message,
		}
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("stripe: decode response: %w", err)
		}
	}
	return nil
}
