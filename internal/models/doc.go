// Package models defines the core domain entities for the settlement engine.
//
// # Entities
//
//   - Claim: one obligation to be paid out of a single incoming payment
//   - RateOverride / TierRule: the layered commission rule set
//   - PerformanceSnapshot: derived trailing-window earnings for tier evaluation
//   - SettlementRecord: the ledger row written per claim per payment event
//   - PayoutRequest: a payee-initiated withdrawal driven through its state machine
//   - Payee: the party receiving payouts, with its external transfer account
//
// # Design Principles
//
// 1. **Money is integer minor units**: every amount is cents (int64), never floats
// 2. **Typed at the boundary**: the store (de)serializes rows into these structs;
// services never see untyped maps
// 3. **Derived, not counted**: balances and performance snapshots are aggregates
// over ledger rows, never separately mutated counters
// 4. **Avoid circular references**: entities reference each other by ID strings
package models
