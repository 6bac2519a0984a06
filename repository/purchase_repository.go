package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tonflip/database"
	"tonflip/domain/entities"
	"tonflip/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type purchaseRepository struct {
	q Queryable
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *database.DB) interfaces.PurchaseRepository {
	return &purchaseRepository{q: db.Pool}
}

func newPurchaseRepositoryWithTx(tx Queryable) interfaces.PurchaseRepository {
	return &purchaseRepository{q: tx}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *entities.Purchase) error {
	query := `
		INSERT INTO purchases (id, profile_id, wallet_address, recipient_address, amount_nano, status, initiated_at, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.Exec(ctx, query,
		purchase.ID,
		purchase.ProfileID,
		purchase.WalletAddress,
		purchase.RecipientAddress,
		purchase.AmountNano,
		purchase.Status,
		purchase.InitiatedAt,
		purchase.ValidUntil,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase for profile %s: %w", purchase.ProfileID, err)
	}
	return nil
}

func (r *purchaseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Purchase, error) {
	query := `
		SELECT id, profile_id, wallet_address, recipient_address, amount_nano, status,
		       tx_hash, initiated_at, valid_until, verified_at
		FROM purchases
		WHERE id = $1
		FOR UPDATE`

	var p entities.Purchase
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ProfileID,
		&p.WalletAddress,
		&p.RecipientAddress,
		&p.AmountNano,
		&p.Status,
		&p.TxHash,
		&p.InitiatedAt,
		&p.ValidUntil,
		&p.VerifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock purchase %s: %w", id, err)
	}
	return &p, nil
}

// CountPending includes pending rows past valid_until, they stay verifiable until the expiry job runs
func (r *purchaseRepository) CountPending(ctx context.Context, profileID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM purchases
		WHERE profile_id = $1 AND status = 'pending'`

	var count int
	if err := r.q.QueryRow(ctx, query, profileID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending purchases for profile %s: %w", profileID, err)
	}
	return count, nil
}

func (r *purchaseRepository) IsTxHashUsed(ctx context.Context, txHash string) (bool, error) {
	var used bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchases WHERE tx_hash = $1)`, txHash).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction hash: %w", err)
	}
	return used, nil
}

func (r *purchaseRepository) MarkVerified(ctx context.Context, id uuid.UUID, txHash string, verifiedAt time.Time) error {
	query := `
		UPDATE purchases
		SET status = 'verified', tx_hash = $2, verified_at = $3
		WHERE id = $1 AND status = 'pending'`

	result, err := r.q.Exec(ctx, query, id, txHash, verifiedAt)
	if err != nil {
		return fmt.Errorf("failed to mark purchase %s verified: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("purchase %s is no longer pending", id)
	}
	return nil
}

func (r *purchaseRepository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.q.Exec(ctx, `UPDATE purchases SET status = 'expired' WHERE status = 'pending' AND valid_until < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending purchases: %w", err)
	}
	return result.RowsAffected(), nil
}
