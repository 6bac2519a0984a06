package repository

import (
	"context"
	"errors"
	"fmt"

	"tonflip/database"
	"tonflip/domain/entities"
	"tonflip/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type referralRepository struct {
	q Queryable
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *database.DB) interfaces.ReferralRepository {
	return &referralRepository{q: db.Pool}
}

func newReferralRepositoryWithTx(tx Queryable) interfaces.ReferralRepository {
	return &referralRepository{q: tx}
}

func (r *referralRepository) CreateCode(ctx context.Context, code, profileID string) error {
	_, err := r.q.Exec(ctx, `INSERT INTO referral_codes (code, profile_id) VALUES ($1, $2)`, code, profileID)
	if err != nil {
		return fmt.Errorf("failed to create referral code for profile %s: %w", profileID, err)
	}
	return nil
}

// ResolveCode runs under a savepoint inside a transaction, so a failed lookup
// leaves the surrounding transaction usable.
func (r *referralRepository) ResolveCode(ctx context.Context, code string) (string, error) {
	tx, ok := r.q.(pgx.Tx)
	if !ok {
		return resolveCode(ctx, r.q, code)
	}

	savepoint, err := tx.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open savepoint: %w", err)
	}
	profileID, err := resolveCode(ctx, savepoint, code)
	if err != nil {
		_ = savepoint.Rollback(ctx)
		return "", err
	}
	if err := savepoint.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to release savepoint: %w", err)
	}
	return profileID, nil
}

func resolveCode(ctx context.Context, q Queryable, code string) (string, error) {
	var profileID string
	err := q.QueryRow(ctx, `SELECT profile_id FROM referral_codes WHERE code = $1`, code).Scan(&profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve referral code: %w", err)
	}
	return profileID, nil
}

func (r *referralRepository) RecordCommission(ctx context.Context, commission *entities.ReferralCommission) (bool, error) {
	query := `
		INSERT INTO referral_commissions (bet_id, referrer_id, referred_id, amount_centipoints)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bet_id) DO NOTHING
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		commission.BetID,
		commission.ReferrerID,
		commission.ReferredID,
		commission.AmountCentipoints,
	).Scan(&commission.ID, &commission.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record commission for bet %d: %w", commission.BetID, err)
	}
	return true, nil
}
