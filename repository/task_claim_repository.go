package repository

import (
	"context"
	"fmt"
	"time"

	"tonflip/database"
	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
)

type taskClaimRepository struct {
	q Queryable
}

// NewTaskClaimRepository creates a new task claim repository
func NewTaskClaimRepository(db *database.DB) interfaces.TaskClaimRepository {
	return &taskClaimRepository{q: db.Pool}
}

func newTaskClaimRepositoryWithTx(tx Queryable) interfaces.TaskClaimRepository {
	return &taskClaimRepository{q: tx}
}

func (r *taskClaimRepository) GetClaims(ctx context.Context, profileID string) (map[entities.TaskID]time.Time, error) {
	rows, err := r.q.Query(ctx, `SELECT task_id, claimed_at FROM task_claims WHERE profile_id = $1`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task claims for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	claims := make(map[entities.TaskID]time.Time)
	for rows.Next() {
		var (
			taskID    entities.TaskID
			claimedAt time.Time
		)
		if err := rows.Scan(&taskID, &claimedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task claim: %w", err)
		}
		claims[taskID] = claimedAt
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task claims: %w", err)
	}

	return claims, nil
}

func (r *taskClaimRepository) UpsertClaim(ctx context.Context, profileID string, taskID entities.TaskID, claimedAt time.Time) error {
	query := `
		INSERT INTO task_claims (profile_id, task_id, claimed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_id, task_id) DO UPDATE SET claimed_at = EXCLUDED.claimed_at`

	if _, err := r.q.Exec(ctx, query, profileID, taskID, claimedAt); err != nil {
		return fmt.Errorf("failed to store claim of %s for profile %s: %w", taskID, profileID, err)
	}
	return nil
}
