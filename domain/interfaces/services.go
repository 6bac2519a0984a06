package interfaces

import (
	"context"

	"tonflip/domain/entities"

	"github.com/google/uuid"
)

// ProfileService defines the interface for profile bootstrap and bookkeeping
type ProfileService interface {
	// GetOrCreateProfile returns the caller's profile, creating it on first launch.
	// The bool result is true when this call created the profile.
	GetOrCreateProfile(ctx context.Context, user entities.TelegramUser, referralCode string) (*entities.Profile, bool, error)

	// GetProfile returns ErrProfileNotFound for unknown ids
	GetProfile(ctx context.Context, profileID string) (*entities.Profile, error)

	ConnectWallet(ctx context.Context, profileID, address string) (*entities.Profile, error)
	DisconnectWallet(ctx context.Context, profileID string) (*entities.Profile, error)
}

// WagerService defines the interface for coin flip settlement
type WagerService interface {
	// ValidateWager checks the amount bounds without touching storage
	ValidateWager(amount int64) error

	// SettleWager applies an already drawn outcome to the bettor's profile
	SettleWager(ctx context.Context, profileID string, choice, outcome entities.CoinSide, amount int64) (*entities.BetResult, error)
}

// ReferralService defines the interface for referral credits and claims
type ReferralService interface {
	// CreditSignup grants the referrer's signup bonus and bumps their referral count
	CreditSignup(ctx context.Context, referrerID, referredID string) error

	// CreditCommission credits the bettor's referrer once per bet.
	// Returns false when nothing was credited.
	CreditCommission(ctx context.Context, betID int64, bettorID string, amount int64) (bool, error)

	// ClaimEarnings moves whole claimable points into spendable points
	ClaimEarnings(ctx context.Context, profileID string) (*entities.ReferralClaimResult, error)

	ListReferredUsers(ctx context.Context, profileID string) ([]*entities.ReferredUser, error)
}

// TaskService defines the interface for the task board
type TaskService interface {
	ListTasks(ctx context.Context, profileID string) ([]*entities.TaskStatus, error)
	ClaimTask(ctx context.Context, profileID string, taskID entities.TaskID) (*entities.TaskClaimResult, error)
}

// PurchaseService defines the interface for buying points with TON
type PurchaseService interface {
	InitiatePurchase(ctx context.Context, profileID string) (*entities.PurchaseIntent, error)
	VerifyPurchase(ctx context.Context, profileID string, purchaseID uuid.UUID) (*entities.PurchaseResult, error)
	ExpireStalePurchases(ctx context.Context) (int64, error)
}

// LeaderboardService defines the interface for read-only views
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, sort entities.LeaderboardSort) ([]*entities.LeaderboardEntry, error)

	// GetRecentPlays returns the latest bets, globally when profileID is empty
	GetRecentPlays(ctx context.Context, profileID string) ([]*entities.Bet, error)
}
