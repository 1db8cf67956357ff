// Package webhook verifies and parses inbound provider webhook deliveries.
// Signature verification implements the Stripe v1 scheme: the header carries
// t={timestamp},v1={signature} where
// signature = HMAC-SHA256(secret, "{timestamp}.{payload}").
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how far a delivery timestamp may drift from now.
const DefaultTolerance = 5 * time.Minute

var (
	// ErrInvalidHeader means the signature header is malformed.
	ErrInvalidHeader = errors.New("webhook: invalid signature header")

	// ErrSignatureMismatch means no v1 candidate matched the payload.
	ErrSignatureMismatch = errors.New("webhook: signature mismatch")

	// ErrTimestampExpired means the delivery timestamp is outside tolerance.
	ErrTimestampExpired = errors.New("webhook: timestamp outside tolerance")
)

// VerifySignature checks a raw delivery against the endpoint secret. The
// header may carry several v1 candidates after a secret rotation; any match
// passes. Comparison is constant time.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	return verifyAt(payload, header, secret, tolerance, time.Now())
}

func verifyAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	var (
		timestamp  int64
		candidates []string
		haveTS     bool
	)
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidHeader
			}
			timestamp = ts
			haveTS = true
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if !haveTS || len(candidates) == 0 {
		return ErrInvalidHeader
	}

	drift := now.Unix() - timestamp
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(tolerance/time.Second) {
		return ErrTimestampExpired
	}

	expected := computeSignature(timestamp, payload, secret)
	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// computeSignature computes the v1 HMAC-SHA256 digest over "{timestamp}.{payload}".
func computeSignature(timestamp int64, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeader produces a valid header value for the given payload.
// Used by tests and the local delivery tool.
func SignatureHeader(payload []byte, secret string, timestamp int64) string {
	return "t=" + strconv.FormatInt(timestamp, 10) + ",v1=" + hex.EncodeToString(computeSignature(timestamp, payload, secret))
}
