package testhelpers

import (
	"context"
	"time"

	"tonflip/domain/entities"
	"tonflip/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*entities.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByIDForUpdate(ctx context.Context, id string) (*entities.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *MockProfileRepository) CreateIfNotExists(ctx context.Context, profile *entities.Profile) (bool, error) {
	args := m.Called(ctx, profile)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepository) UpdateIdentity(ctx context.Context, profile *entities.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) ApplyFlip(ctx context.Context, id string, newPoints, amount int64, won bool, at time.Time) error {
	args := m.Called(ctx, id, newPoints, amount, won, at)
	return args.Error(0)
}

func (m *MockProfileRepository) AddPoints(ctx context.Context, id string, delta int64) (int64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProfileRepository) AddClaimable(ctx context.Context, id string, centipoints int64) error {
	args := m.Called(ctx, id, centipoints)
	return args.Error(0)
}

func (m *MockProfileRepository) IncrementReferrals(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProfileRepository) ClaimReferralEarnings(ctx context.Context, id string, points int64) (*entities.Profile, error) {
	args := m.Called(ctx, id, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *MockProfileRepository) SetWallet(ctx context.Context, id string, address *string, connectedAt *time.Time) error {
	args := m.Called(ctx, id, address, connectedAt)
	return args.Error(0)
}

func (m *MockProfileRepository) SetPurchaseWindow(ctx context.Context, id string, count int, startedAt *time.Time) error {
	args := m.Called(ctx, id, count, startedAt)
	return args.Error(0)
}

func (m *MockProfileRepository) ListTop(ctx context.Context, sort entities.LeaderboardSort, limit int) ([]*entities.LeaderboardEntry, error) {
	args := m.Called(ctx, sort, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LeaderboardEntry), args.Error(1)
}

func (m *MockProfileRepository) ListReferredBy(ctx context.Context, code string) ([]*entities.ReferredUser, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ReferredUser), args.Error(1)
}

// MockReferralRepository is a mock implementation of ReferralRepository
type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) CreateCode(ctx context.Context, code, profileID string) error {
	args := m.Called(ctx, code, profileID)
	return args.Error(0)
}

func (m *MockReferralRepository) ResolveCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockReferralRepository) RecordCommission(ctx context.Context, commission *entities.ReferralCommission) (bool, error) {
	args := m.Called(ctx, commission)
	return args.Bool(0), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Bet, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) ListRecentByProfile(ctx context.Context, profileID string, limit int) ([]*entities.Bet, error) {
	args := m.Called(ctx, profileID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

// MockPointsHistoryRepository is a mock implementation of PointsHistoryRepository
type MockPointsHistoryRepository struct {
	mock.Mock
}

func (m *MockPointsHistoryRepository) Record(ctx context.Context, history *entities.PointsHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockPointsHistoryRepository) GetByProfile(ctx context.Context, profileID string, limit int) ([]*entities.PointsHistory, error) {
	args := m.Called(ctx, profileID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PointsHistory), args.Error(1)
}

// MockTaskClaimRepository is a mock implementation of TaskClaimRepository
type MockTaskClaimRepository struct {
	mock.Mock
}

func (m *MockTaskClaimRepository) GetClaims(ctx context.Context, profileID string) (map[entities.TaskID]time.Time, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[entities.TaskID]time.Time), args.Error(1)
}

func (m *MockTaskClaimRepository) UpsertClaim(ctx context.Context, profileID string, taskID entities.TaskID, claimedAt time.Time) error {
	args := m.Called(ctx, profileID, taskID, claimedAt)
	return args.Error(0)
}

// MockPurchaseRepository is a mock implementation of PurchaseRepository
type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Create(ctx context.Context, purchase *entities.Purchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

func (m *MockPurchaseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) CountPending(ctx context.Context, profileID string) (int, error) {
	args := m.Called(ctx, profileID)
	return args.Int(0), args.Error(1)
}

func (m *MockPurchaseRepository) IsTxHashUsed(ctx context.Context, txHash string) (bool, error) {
	args := m.Called(ctx, txHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseRepository) MarkVerified(ctx context.Context, id uuid.UUID, txHash string, verifiedAt time.Time) error {
	args := m.Called(ctx, id, txHash, verifiedAt)
	return args.Error(0)
}

func (m *MockPurchaseRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockChainIndexer is a mock implementation of ChainIndexer
type MockChainIndexer struct {
	mock.Mock
}

func (m *MockChainIndexer) GetTransactions(ctx context.Context, wallet string, limit int) ([]*entities.ChainTransaction, error) {
	args := m.Called(ctx, wallet, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ChainTransaction), args.Error(1)
}

// MockLeaderboardCache is a mock implementation of LeaderboardCache
type MockLeaderboardCache struct {
	mock.Mock
}

func (m *MockLeaderboardCache) Get(ctx context.Context, sort entities.LeaderboardSort) ([]*entities.LeaderboardEntry, error) {
	args := m.Called(ctx, sort)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardCache) Set(ctx context.Context, sort entities.LeaderboardSort, entries []*entities.LeaderboardEntry, ttl time.Duration) error {
	args := m.Called(ctx, sort, entries, ttl)
	return args.Error(0)
}

func (m *MockLeaderboardCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// FixedFlipper always lands on Side
type FixedFlipper struct {
	Side entities.CoinSide
}

func (f FixedFlipper) Flip() entities.CoinSide {
	return f.Side
}

// FixedClock returns a clock frozen at t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
