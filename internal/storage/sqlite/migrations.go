package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS payees (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    provider_account_ref TEXT NOT NULL DEFAULT '',
    payouts_enabled INTEGER NOT NULL DEFAULT 0,
    details_submitted INTEGER NOT NULL DEFAULT 0,
    last_payout_error TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS claims (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    payee_id TEXT NOT NULL,
    weight_cents INTEGER NOT NULL,
    currency TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rate_overrides (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    payee_id TEXT NOT NULL,
    rate REAL NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (owner_id, payee_id)
);

CREATE TABLE IF NOT EXISTS tier_rules (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    tier_level INTEGER NOT NULL,
    min_period_earnings_cents INTEGER NOT NULL,
    min_period_count INTEGER NOT NULL,
    rate REAL NOT NULL,
    UNIQUE (owner_id, tier_level)
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    claim_id TEXT NOT NULL,
    payee_id TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    gross_cents INTEGER NOT NULL,
    commission_rate REAL NOT NULL,
    owner_share_cents INTEGER NOT NULL,
    payee_share_cents INTEGER NOT NULL,
    currency TEXT NOT NULL,
    external_payment_ref TEXT NOT NULL,
    settled_at INTEGER NOT NULL,
    UNIQUE (claim_id, external_payment_ref)
);

CREATE TABLE IF NOT EXISTS payout_requests (
    id TEXT PRIMARY KEY,
    payee_id TEXT NOT NULL,
    amount_cents INTEGER NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL,
    provider_payout_ref TEXT NOT NULL DEFAULT '',
    failure_reason TEXT NOT NULL DEFAULT '',
    requested_at INTEGER NOT NULL,
    processed_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS webhook_events (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL UNIQUE,
    event_type TEXT NOT NULL,
    payload TEXT NOT NULL,
    received_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_settlements_payment_ref ON settlements(external_payment_ref);
CREATE INDEX IF NOT EXISTS idx_settlements_payee_id ON settlements(payee_id);
CREATE INDEX IF NOT EXISTS idx_settlements_owner_payee ON settlements(owner_id, payee_id, settled_at);
CREATE INDEX IF NOT EXISTS idx_payout_requests_payee_id ON payout_requests(payee_id);
CREATE INDEX IF NOT EXISTS idx_payout_requests_provider_ref ON payout_requests(provider_payout_ref);
CREATE INDEX IF NOT EXISTS idx_tier_rules_owner_id ON tier_rules(owner_id);
CREATE INDEX IF NOT EXISTS idx_payees_account_ref ON payees(provider_account_ref);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
