package repository

import (
	"context"
	"fmt"

	"tonflip/database"
	"tonflip/domain/entities"
	"tonflip/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type betRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) interfaces.BetRepository {
	return &betRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx Queryable) interfaces.BetRepository {
	return &betRepository{q: tx}
}

func (r *betRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (profile_id, username, amount, choice, result, outcome, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.q.QueryRow(ctx, query,
		bet.ProfileID,
		bet.Username,
		bet.Amount,
		bet.Choice,
		bet.Result,
		bet.Outcome,
		bet.Avatar,
		bet.CreatedAt,
	).Scan(&bet.ID)

	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

func (r *betRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Bet, error) {
	query := `
		SELECT id, profile_id, username, amount, choice, result, outcome, avatar, created_at
		FROM bets
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent bets: %w", err)
	}
	return collectBets(rows)
}

func (r *betRepository) ListRecentByProfile(ctx context.Context, profileID string, limit int) ([]*entities.Bet, error) {
	query := `
		SELECT id, profile_id, username, amount, choice, result, outcome, avatar, created_at
		FROM bets
		WHERE profile_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets of profile %s: %w", profileID, err)
	}
	return collectBets(rows)
}

func collectBets(rows pgx.Rows) ([]*entities.Bet, error) {
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		var bet entities.Bet
		if err := rows.Scan(
			&bet.ID,
			&bet.ProfileID,
			&bet.Username,
			&bet.Amount,
			&bet.Choice,
			&bet.Result,
			&bet.Outcome,
			&bet.Avatar,
			&bet.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bets: %w", err)
	}

	return bets, nil
}
