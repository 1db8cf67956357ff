// Package calculator implements the pure arithmetic of the settlement engine:
// proportional allocation of a paid total across claims, and commission
// splitting of an allocated amount. Functions here take plain values and
// return plain values; persistence and rate resolution live in the service
// layer.
package calculator

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
)

// Weighted pairs a claim identifier with its proportioning weight.
type Weighted struct {
	ClaimID string
	Weight  int64
}

// Allocate splits totalCents across the claims in proportion to their weights
// using the largest-remainder method. Every claim gets the floor of its exact
// proportional share; the leftover cents are handed out one each to the claims
// with the largest fractional remainders, ties broken by ascending ClaimID.
//
// If every weight is zero the total is split equally, with the leftover cents
// again going to the lowest ClaimIDs. The returned shares always sum exactly
// to totalCents.
func Allocate(totalCents int64, claims []Weighted) (map[string]int64, error) {
	if totalCents < 0 {
		return nil, fmt.Errorf("allocate: negative total %d", totalCents)
	}
	if len(claims) == 0 {
		return nil, fmt.Errorf("allocate: no claims")
	}

	var weightSum int64
	for _, c := range claims {
		if c.Weight < 0 {
			return nil, fmt.Errorf("allocate: negative weight %d for claim %s", c.Weight, c.ClaimID)
		}
		if c.Weight > math.MaxInt64-weightSum {
			return nil, fmt.Errorf("allocate: weight sum overflows int64")
		}
		weightSum += c.Weight
	}

	// All-zero weights degrade to an equal split.
	if weightSum == 0 {
		equal := make([]Weighted, len(claims))
		for i, c := range claims {
			equal[i] = Weighted{ClaimID: c.ClaimID, Weight: 1}
		}
		claims = equal
		weightSum = int64(len(claims))
	}

	type slice struct {
		claimID   string
		floor     int64
		remainder int64
	}

	shares := make(map[string]int64, len(claims))
	slices := make([]slice, 0, len(claims))
	var allocated int64
	for _, c := range claims {
		if _, ok := shares[c.ClaimID]; ok {
			return nil, fmt.Errorf("allocate: duplicate claim %s", c.ClaimID)
		}
		// 128-bit intermediate so totalCents * weight cannot overflow. The
		// quotient is at most totalCents, so it fits back into int64.
		hi, lo := bits.Mul64(uint64(totalCents), uint64(c.Weight))
		quo, rem := bits.Div64(hi, lo, uint64(weightSum))
		floor := int64(quo)
		shares[c.ClaimID] = floor
		allocated += floor
		slices = append(slices, slice{
			claimID:   c.ClaimID,
			floor:     floor,
			remainder: int64(rem),
		})
	}

	shortfall := totalCents - allocated
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].remainder != slices[j].remainder {
			return slices[i].remainder > slices[j].remainder
		}
		return slices[i].claimID < slices[j].claimID
	})
	for i := int64(0); i < shortfall; i++ {
		shares[slices[i].claimID]++
	}

	var check int64
	for _, s := range shares {
		check += s
	}
	if check != totalCents {
		return nil, fmt.Errorf("allocate: shares sum to %d, want %d", check, totalCents)
	}
	return shares, nil
}

// SplitCommission divides an allocated amount between owner and payee at the
// given percentage rate. The rate is carried at basis-point precision and the
// math is done in integers, so owner gets exactly floor(gross * bp / 10000)
// and the payee always receives the rounding remainder; the two shares sum to
// grossCents.
func SplitCommission(grossCents int64, rate float64) (ownerCents, payeeCents int64) {
	bp := int64(math.Round(rate * 100))
	if bp < 0 {
		bp = 0
	}
	if bp > 10000 {
		bp = 10000
	}
	// gross = q*10000 + r keeps every product inside int64.
	q, r := grossCents/10000, grossCents%10000
	ownerCents = q*bp + r*bp/10000
	payeeCents = grossCents - ownerCents
	return ownerCents, payeeCents
}
