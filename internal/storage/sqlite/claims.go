package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/likelee/payouts/internal/models"
	"github.com/likelee/payouts/internal/storage"
)

// CreateClaim persists a new claim to the database.
func (s *SQLiteStore) CreateClaim(ctx context.Context, claim *models.Claim) error {
	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}
	if claim.CreatedAt == 0 {
		claim.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO claims (id, owner_id, payee_id, weight_cents, currency, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		claim.ID, claim.OwnerID, claim.PayeeID, claim.WeightCents, claim.Currency, claim.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

// GetClaims retrieves the claims with the given IDs. Every requested ID must
// exist; a partial batch is an error, not a partial result.
func (s *SQLiteStore) GetClaims(ctx context.Context, claimIDs []string) ([]models.Claim, error) {
	if len(claimIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(claimIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(claimIDs))
	for i, id := range claimIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, payee_id, weight_cents, currency, created_at FROM claims WHERE id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	claims := make([]models.Claim, 0, len(claimIDs))
	for rows.Next() {
		var c models.Claim
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.PayeeID, &c.WeightCents, &c.Currency, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}

	if len(claims) != len(claimIDs) {
		return nil, fmt.Errorf("requested %d claims, found %d: %w", len(claimIDs), len(claims), storage.ErrNotFound)
	}
	return claims, nil
}
