package api

import (
	"context"

	"tonflip/domain/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockProfileHandler struct{ mock.Mock }

func (m *mockProfileHandler) Bootstrap(ctx context.Context, user entities.TelegramUser, referralCode string) (*entities.Profile, bool, error) {
	args := m.Called(ctx, user, referralCode)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entities.Profile), args.Bool(1), args.Error(2)
}

func (m *mockProfileHandler) GetProfile(ctx context.Context, profileID string) (*entities.Profile, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *mockProfileHandler) ConnectWallet(ctx context.Context, profileID, address string) (*entities.Profile, error) {
	args := m.Called(ctx, profileID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *mockProfileHandler) DisconnectWallet(ctx context.Context, profileID string) (*entities.Profile, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

type mockWagerHandler struct{ mock.Mock }

func (m *mockWagerHandler) Flip(ctx context.Context, profileID, choice string, amount int64) (*entities.BetResult, error) {
	args := m.Called(ctx, profileID, choice, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BetResult), args.Error(1)
}

type mockTaskHandler struct{ mock.Mock }

func (m *mockTaskHandler) ListTasks(ctx context.Context, profileID string) ([]*entities.TaskStatus, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TaskStatus), args.Error(1)
}

func (m *mockTaskHandler) ClaimTask(ctx context.Context, profileID, taskID string) (*entities.TaskClaimResult, error) {
	args := m.Called(ctx, profileID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TaskClaimResult), args.Error(1)
}

type mockPurchaseHandler struct{ mock.Mock }

func (m *mockPurchaseHandler) InitiatePurchase(ctx context.Context, profileID string) (*entities.PurchaseIntent, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PurchaseIntent), args.Error(1)
}

func (m *mockPurchaseHandler) VerifyPurchase(ctx context.Context, profileID string, purchaseID uuid.UUID) (*entities.PurchaseResult, error) {
	args := m.Called(ctx, profileID, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PurchaseResult), args.Error(1)
}

func (m *mockPurchaseHandler) ExpireStalePurchases(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockReferralHandler struct{ mock.Mock }

func (m *mockReferralHandler) ClaimEarnings(ctx context.Context, profileID string) (*entities.ReferralClaimResult, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReferralClaimResult), args.Error(1)
}

func (m *mockReferralHandler) ListReferredUsers(ctx context.Context, profileID string) ([]*entities.ReferredUser, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ReferredUser), args.Error(1)
}

type mockLeaderboardHandler struct{ mock.Mock }

func (m *mockLeaderboardHandler) GetLeaderboard(ctx context.Context, sort string) ([]*entities.LeaderboardEntry, error) {
	args := m.Called(ctx, sort)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LeaderboardEntry), args.Error(1)
}

func (m *mockLeaderboardHandler) GetRecentPlays(ctx context.Context, profileID string) ([]*entities.Bet, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}
