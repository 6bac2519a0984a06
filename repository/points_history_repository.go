package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tonflip/database"
	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
)

type pointsHistoryRepository struct {
	q Queryable
}

// NewPointsHistoryRepository creates a new points history repository
func NewPointsHistoryRepository(db *database.DB) interfaces.PointsHistoryRepository {
	return &pointsHistoryRepository{q: db.Pool}
}

func newPointsHistoryRepositoryWithTx(tx Queryable) interfaces.PointsHistoryRepository {
	return &pointsHistoryRepository{q: tx}
}

// Record appends a ledger entry
func (r *pointsHistoryRepository) Record(ctx context.Context, history *entities.PointsHistory) error {
	metadata := history.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal points history metadata: %w", err)
	}

	query := `
		INSERT INTO points_history
		(profile_id, points_before, points_after, change_amount, transaction_type, metadata, related_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = r.q.QueryRow(ctx, query,
		history.ProfileID,
		history.PointsBefore,
		history.PointsAfter,
		history.ChangeAmount,
		history.TransactionType,
		metadataJSON,
		history.RelatedID,
	).Scan(&history.ID, &history.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record points history for profile %s: %w", history.ProfileID, err)
	}

	return nil
}

// GetByProfile returns the newest ledger entries of a profile first
func (r *pointsHistoryRepository) GetByProfile(ctx context.Context, profileID string, limit int) ([]*entities.PointsHistory, error) {
	query := `
		SELECT id, profile_id, points_before, points_after, change_amount,
		       transaction_type, metadata, related_id, created_at
		FROM points_history
		WHERE profile_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get points history for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var histories []*entities.PointsHistory
	for rows.Next() {
		var history entities.PointsHistory
		var metadataJSON []byte

		if err := rows.Scan(
			&history.ID,
			&history.ProfileID,
			&history.PointsBefore,
			&history.PointsAfter,
			&history.ChangeAmount,
			&history.TransactionType,
			&metadataJSON,
			&history.RelatedID,
			&history.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan points history: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal points history metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating points history: %w", err)
	}

	return histories, nil
}
