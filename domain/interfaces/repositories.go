package interfaces

import (
	"context"
	"time"

	"tonflip/domain/entities"
	"tonflip/domain/events"

	"github.com/google/uuid"
)

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	// GetByID returns nil, nil when the profile does not exist
	GetByID(ctx context.Context, id string) (*entities.Profile, error)

	// GetByIDForUpdate locks the profile row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id string) (*entities.Profile, error)

	// CreateIfNotExists inserts the profile unless one with the same id exists.
	// Returns false when another session created it first.
	CreateIfNotExists(ctx context.Context, profile *entities.Profile) (bool, error)

	// UpdateIdentity refreshes the Telegram display fields
	UpdateIdentity(ctx context.Context, profile *entities.Profile) error

	// ApplyFlip writes a settled flip: new points plus the play counters
	ApplyFlip(ctx context.Context, id string, newPoints, amount int64, won bool, at time.Time) error

	// AddPoints atomically increments points and returns the new total
	AddPoints(ctx context.Context, id string, delta int64) (int64, error)

	// AddClaimable atomically increments claimable centipoints
	AddClaimable(ctx context.Context, id string, centipoints int64) error

	// IncrementReferrals bumps the referral counter by one
	IncrementReferrals(ctx context.Context, id string) error

	// ClaimReferralEarnings moves points whole points out of the claimable balance
	ClaimReferralEarnings(ctx context.Context, id string, points int64) (*entities.Profile, error)

	// SetWallet stores or clears the connected wallet
	SetWallet(ctx context.Context, id string, address *string, connectedAt *time.Time) error

	// SetPurchaseWindow stores the purchase counter and the start of its window
	SetPurchaseWindow(ctx context.Context, id string, count int, startedAt *time.Time) error

	// ListTop returns the top profiles ordered by sort
	ListTop(ctx context.Context, sort entities.LeaderboardSort, limit int) ([]*entities.LeaderboardEntry, error)

	// ListReferredBy returns profiles whose referred_by equals code
	ListReferredBy(ctx context.Context, code string) ([]*entities.ReferredUser, error)
}

// ReferralRepository defines the interface for referral codes and commissions
type ReferralRepository interface {
	// CreateCode binds code to profileID
	CreateCode(ctx context.Context, code, profileID string) error

	// ResolveCode returns the owning profile id, or "" when the code is unknown
	ResolveCode(ctx context.Context, code string) (string, error)

	// RecordCommission stores the commission for a bet once.
	// Returns false if the bet was already credited.
	RecordCommission(ctx context.Context, commission *entities.ReferralCommission) (bool, error)
}

// BetRepository defines the interface for the append-only bet log
type BetRepository interface {
	Create(ctx context.Context, bet *entities.Bet) error
	ListRecent(ctx context.Context, limit int) ([]*entities.Bet, error)
	ListRecentByProfile(ctx context.Context, profileID string, limit int) ([]*entities.Bet, error)
}

// PointsHistoryRepository defines the interface for the points ledger
type PointsHistoryRepository interface {
	Record(ctx context.Context, history *entities.PointsHistory) error
	GetByProfile(ctx context.Context, profileID string, limit int) ([]*entities.PointsHistory, error)
}

// TaskClaimRepository defines the interface for the completed-task map
type TaskClaimRepository interface {
	// GetClaims returns the last claim time per task for a profile
	GetClaims(ctx context.Context, profileID string) (map[entities.TaskID]time.Time, error)

	// UpsertClaim stores claimedAt as the last claim of taskID
	UpsertClaim(ctx context.Context, profileID string, taskID entities.TaskID, claimedAt time.Time) error
}

// PurchaseRepository defines the interface for points purchases
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entities.Purchase) error

	// GetByIDForUpdate returns nil, nil when the purchase does not exist
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Purchase, error)

	// CountPending counts purchases that are still verifiable, that is not yet verified or expired
	CountPending(ctx context.Context, profileID string) (int, error)

	// IsTxHashUsed reports whether txHash already verified a purchase
	IsTxHashUsed(ctx context.Context, txHash string) (bool, error)

	MarkVerified(ctx context.Context, id uuid.UUID, txHash string, verifiedAt time.Time) error

	// ExpirePending marks pending purchases whose validity ended before cutoff as expired
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction ends
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// EventSubscriber registers in-process handlers for published events
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error
}
