package application

import (
	"context"

	"tonflip/domain/entities"
	"tonflip/domain/events"

	"github.com/google/uuid"
)

// PlayFeed pushes settled bets to live subscribers of the recent plays view
type PlayFeed interface {
	BroadcastBet(bet *entities.Bet)
}

// OpsNotifier posts operator notifications outside the app
type OpsNotifier interface {
	NotifyPurchaseVerified(ctx context.Context, event events.PurchaseVerifiedEvent) error
	NotifyBigWin(ctx context.Context, event events.BetSettledEvent) error
}

// ProfileHandler bootstraps sessions and manages profile bookkeeping
type ProfileHandler interface {
	// Bootstrap returns the caller's profile, creating it on first launch.
	// Concurrent calls for one identity share a single execution.
	Bootstrap(ctx context.Context, user entities.TelegramUser, referralCode string) (*entities.Profile, bool, error)
	GetProfile(ctx context.Context, profileID string) (*entities.Profile, error)
	ConnectWallet(ctx context.Context, profileID, address string) (*entities.Profile, error)
	DisconnectWallet(ctx context.Context, profileID string) (*entities.Profile, error)
}

// WagerHandler settles coin flips
type WagerHandler interface {
	Flip(ctx context.Context, profileID, choice string, amount int64) (*entities.BetResult, error)
}

// TaskHandler serves the task board
type TaskHandler interface {
	ListTasks(ctx context.Context, profileID string) ([]*entities.TaskStatus, error)
	ClaimTask(ctx context.Context, profileID, taskID string) (*entities.TaskClaimResult, error)
}

// PurchaseHandler drives the TON points purchase flow
type PurchaseHandler interface {
	InitiatePurchase(ctx context.Context, profileID string) (*entities.PurchaseIntent, error)
	VerifyPurchase(ctx context.Context, profileID string, purchaseID uuid.UUID) (*entities.PurchaseResult, error)
	ExpireStalePurchases(ctx context.Context) (int64, error)
}

// ReferralHandler serves the referral network and earnings claims
type ReferralHandler interface {
	ClaimEarnings(ctx context.Context, profileID string) (*entities.ReferralClaimResult, error)
	ListReferredUsers(ctx context.Context, profileID string) ([]*entities.ReferredUser, error)
}

// LeaderboardHandler serves the read-only rankings and recent plays
type LeaderboardHandler interface {
	GetLeaderboard(ctx context.Context, sort string) ([]*entities.LeaderboardEntry, error)
	GetRecentPlays(ctx context.Context, profileID string) ([]*entities.Bet, error)
}
