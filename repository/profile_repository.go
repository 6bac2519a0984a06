package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tonflip/database"
	"tonflip/domain/entities"
	"tonflip/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const profileColumns = `
	id, username, first_name, last_name, language_code, photo_url,
	points, claimable_centipoints, total_referral_earnings,
	referral_code, referred_by, referrals,
	games_played, games_won, games_lost, total_volume,
	daily_purchases, purchase_window_started_at, last_bet_at,
	wallet_address, last_wallet_connection_at,
	created_at, updated_at`

type profileRepository struct {
	q Queryable
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) interfaces.ProfileRepository {
	return &profileRepository{q: db.Pool}
}

// newProfileRepositoryWithTx creates a new profile repository bound to a transaction
func newProfileRepositoryWithTx(tx Queryable) interfaces.ProfileRepository {
	return &profileRepository{q: tx}
}

func scanProfile(row pgx.Row) (*entities.Profile, error) {
	var p entities.Profile
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.FirstName,
		&p.LastName,
		&p.LanguageCode,
		&p.PhotoURL,
		&p.Points,
		&p.ClaimableCentipoints,
		&p.TotalReferralEarnings,
		&p.ReferralCode,
		&p.ReferredBy,
		&p.Referrals,
		&p.GamesPlayed,
		&p.GamesWon,
		&p.GamesLost,
		&p.TotalVolume,
		&p.DailyPurchases,
		&p.PurchaseWindowStartedAt,
		&p.LastBetAt,
		&p.WalletAddress,
		&p.LastWalletConnectionAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*entities.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return profile, nil
}

func (r *profileRepository) GetByIDForUpdate(ctx context.Context, id string) (*entities.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1 FOR UPDATE`

	profile, err := scanProfile(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile %s: %w", id, err)
	}
	return profile, nil
}

func (r *profileRepository) CreateIfNotExists(ctx context.Context, profile *entities.Profile) (bool, error) {
	query := `
		INSERT INTO profiles (
			id, username, first_name, last_name, language_code, photo_url,
			points, claimable_centipoints, referral_code, referred_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		profile.ID,
		profile.Username,
		profile.FirstName,
		profile.LastName,
		profile.LanguageCode,
		profile.PhotoURL,
		profile.Points,
		profile.ClaimableCentipoints,
		profile.ReferralCode,
		profile.ReferredBy,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create profile %s: %w", profile.ID, err)
	}
	return true, nil
}

func (r *profileRepository) UpdateIdentity(ctx context.Context, profile *entities.Profile) error {
	query := `
		UPDATE profiles
		SET username = $2, first_name = $3, last_name = $4, language_code = $5, photo_url = $6, updated_at = NOW()
		WHERE id = $1`

	_, err := r.q.Exec(ctx, query,
		profile.ID,
		profile.Username,
		profile.FirstName,
		profile.LastName,
		profile.LanguageCode,
		profile.PhotoURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update identity of profile %s: %w", profile.ID, err)
	}
	return nil
}

func (r *profileRepository) ApplyFlip(ctx context.Context, id string, newPoints, amount int64, won bool, at time.Time) error {
	wins, losses := 0, 1
	if won {
		wins, losses = 1, 0
	}

	query := `
		UPDATE profiles
		SET points = $2,
		    games_played = games_played + 1,
		    games_won = games_won + $3,
		    games_lost = games_lost + $4,
		    total_volume = total_volume + $5,
		    last_bet_at = $6,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id, newPoints, wins, losses, amount, at)
	if err != nil {
		return fmt.Errorf("failed to apply flip to profile %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	return nil
}

func (r *profileRepository) AddPoints(ctx context.Context, id string, delta int64) (int64, error) {
	query := `
		UPDATE profiles
		SET points = points + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING points`

	var points int64
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("profile %s not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add points to profile %s: %w", id, err)
	}
	return points, nil
}

func (r *profileRepository) AddClaimable(ctx context.Context, id string, centipoints int64) error {
	query := `
		UPDATE profiles
		SET claimable_centipoints = claimable_centipoints + $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id, centipoints)
	if err != nil {
		return fmt.Errorf("failed to add claimable earnings to profile %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	return nil
}

func (r *profileRepository) IncrementReferrals(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE profiles SET referrals = referrals + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment referrals of profile %s: %w", id, err)
	}
	return nil
}

func (r *profileRepository) ClaimReferralEarnings(ctx context.Context, id string, points int64) (*entities.Profile, error) {
	query := `
		UPDATE profiles
		SET points = points + $2,
		    claimable_centipoints = claimable_centipoints - $3,
		    total_referral_earnings = total_referral_earnings + $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.q.QueryRow(ctx, query, id, points, points*entities.CentipointsPerPoint))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim referral earnings of profile %s: %w", id, err)
	}
	return profile, nil
}

func (r *profileRepository) SetWallet(ctx context.Context, id string, address *string, connectedAt *time.Time) error {
	query := `
		UPDATE profiles
		SET wallet_address = $2,
		    last_wallet_connection_at = COALESCE($3, last_wallet_connection_at),
		    updated_at = NOW()
		WHERE id = $1`

	if _, err := r.q.Exec(ctx, query, id, address, connectedAt); err != nil {
		return fmt.Errorf("failed to set wallet of profile %s: %w", id, err)
	}
	return nil
}

func (r *profileRepository) SetPurchaseWindow(ctx context.Context, id string, count int, startedAt *time.Time) error {
	query := `
		UPDATE profiles
		SET daily_purchases = $2, purchase_window_started_at = $3, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.q.Exec(ctx, query, id, count, startedAt); err != nil {
		return fmt.Errorf("failed to set purchase window of profile %s: %w", id, err)
	}
	return nil
}

var leaderboardOrder = map[entities.LeaderboardSort]string{
	entities.LeaderboardSortPoints: "points DESC",
	entities.LeaderboardSortVolume: "total_volume DESC",
	entities.LeaderboardSortWins:   "games_won DESC",
}

func (r *profileRepository) ListTop(ctx context.Context, sort entities.LeaderboardSort, limit int) ([]*entities.LeaderboardEntry, error) {
	order, ok := leaderboardOrder[sort]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidLeaderboardSort, sort)
	}

	query := `
		SELECT id, username, first_name, photo_url, points, total_volume, games_won
		FROM profiles
		ORDER BY ` + order + `, created_at ASC, id ASC
		LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top profiles by %s: %w", sort, err)
	}
	defer rows.Close()

	var entries []*entities.LeaderboardEntry
	for rows.Next() {
		entry := &entities.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(
			&entry.ProfileID,
			&entry.Username,
			&entry.FirstName,
			&entry.PhotoURL,
			&entry.Points,
			&entry.TotalVolume,
			&entry.GamesWon,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}

func (r *profileRepository) ListReferredBy(ctx context.Context, code string) ([]*entities.ReferredUser, error) {
	query := `
		SELECT id, username, first_name, points
		FROM profiles
		WHERE referred_by = $1
		ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles referred by %s: %w", code, err)
	}
	defer rows.Close()

	var referred []*entities.ReferredUser
	for rows.Next() {
		var u entities.ReferredUser
		if err := rows.Scan(&u.ProfileID, &u.Username, &u.FirstName, &u.Points); err != nil {
			return nil, fmt.Errorf("failed to scan referred profile: %w", err)
		}
		referred = append(referred, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referred profiles: %w", err)
	}

	return referred, nil
}
