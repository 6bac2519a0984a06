package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testPlayerWallet = "UQCuqHbDt1kltOPMmGT3u_PWgEtiQm_dHUUo3fC-ejDrcnMQ"
	testRecipientRaw = "0:75b5936d89f78bc6a4265947c8f401d5b63bebb77c7ce49bfa5e692f3220c8b7"
)

type purchaseMocks struct {
	profileRepo  *testhelpers.MockProfileRepository
	purchaseRepo *testhelpers.MockPurchaseRepository
	historyRepo  *testhelpers.MockPointsHistoryRepository
	indexer      *testhelpers.MockChainIndexer
	publisher    *testhelpers.MockEventPublisher
}

func newPurchaseMocks() *purchaseMocks {
	return &purchaseMocks{
		profileRepo:  new(testhelpers.MockProfileRepository),
		purchaseRepo: new(testhelpers.MockPurchaseRepository),
		historyRepo:  new(testhelpers.MockPointsHistoryRepository),
		indexer:      new(testhelpers.MockChainIndexer),
		publisher:    new(testhelpers.MockEventPublisher),
	}
}

func (m *purchaseMocks) service(now time.Time) *purchaseService {
	return NewPurchaseService(m.profileRepo, m.purchaseRepo, m.historyRepo, m.indexer, m.publisher, testhelpers.FixedClock(now)).(*purchaseService)
}

func TestPurchaseService_InitiatePurchase(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	now := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	wallet := testPlayerWallet

	t.Run("creates pending purchase", func(t *testing.T) {
		m := newPurchaseMocks()
		m.profileRepo.On("GetByIDForUpdate", ctx, "42").Return(&entities.Profile{ID: "42", WalletAddress: &wallet}, nil)
		m.purchaseRepo.On("CountPending", ctx, "42").Return(0, nil)
		m.purchaseRepo.On("Create", ctx, mock.MatchedBy(func(p *entities.Purchase) bool {
			return p.ProfileID == "42" &&
				p.WalletAddress == wallet &&
				p.AmountNano == 150000000 &&
				p.Status == entities.PurchaseStatusPending &&
				p.ValidUntil.Equal(now.Add(20*time.Minute))
		})).Return(nil)

		intent, err := m.service(now).InitiatePurchase(ctx, "42")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, intent.PurchaseID)
		assert.Equal(t, int64(150000000), intent.AmountNano)
		assert.Equal(t, now.Add(15*time.Second), intent.VerifiableAt)
		m.purchaseRepo.AssertExpectations(t)
	})

	t.Run("requires connected wallet", func(t *testing.T) {
		m := newPurchaseMocks()
		m.profileRepo.On("GetByIDForUpdate", ctx, "42").Return(&entities.Profile{ID: "42"}, nil)

		_, err := m.service(now).InitiatePurchase(ctx, "42")

		assert.ErrorIs(t, err, entities.ErrWalletNotConnected)
	})

	t.Run("pending purchases count toward the limit", func(t *testing.T) {
		m := newPurchaseMocks()
		windowStart := now.Add(-3 * time.Hour)
		m.profileRepo.On("GetByIDForUpdate", ctx, "42").Return(&entities.Profile{
			ID:                      "42",
			WalletAddress:           &wallet,
			DailyPurchases:          1,
			PurchaseWindowStartedAt: &windowStart,
		}, nil)
		m.purchaseRepo.On("CountPending", ctx, "42").Return(1, nil)

		_, err := m.service(now).InitiatePurchase(ctx, "42")

		assert.ErrorIs(t, err, entities.ErrPurchaseLimitReached)
		m.purchaseRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("pending purchase past valid until still counts", func(t *testing.T) {
		m := newPurchaseMocks()
		windowStart := now.Add(-3 * time.Hour)
		m.profileRepo.On("GetByIDForUpdate", ctx, "42").Return(&entities.Profile{
			ID:                      "42",
			WalletAddress:           &wallet,
			DailyPurchases:          1,
			PurchaseWindowStartedAt: &windowStart,
		}, nil)
		// Initiated 30 minutes ago, verifiable until the expiry job marks it expired
		m.purchaseRepo.On("CountPending", ctx, "42").Return(1, nil)

		_, err := m.service(now).InitiatePurchase(ctx, "42")

		assert.ErrorIs(t, err, entities.ErrPurchaseLimitReached)
		m.purchaseRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("expired window no longer counts", func(t *testing.T) {
		m := newPurchaseMocks()
		windowStart := now.Add(-24 * time.Hour)
		m.profileRepo.On("GetByIDForUpdate", ctx, "42").Return(&entities.Profile{
			ID:                      "42",
			WalletAddress:           &wallet,
			DailyPurchases:          2,
			PurchaseWindowStartedAt: &windowStart,
		}, nil)
		m.purchaseRepo.On("CountPending", ctx, "42").Return(0, nil)
		m.purchaseRepo.On("Create", ctx, mock.Anything).Return(nil)

		_, err := m.service(now).InitiatePurchase(ctx, "42")

		require.NoError(t, err)
	})
}

func TestPurchaseService_VerifyPurchase(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	now := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	initiatedAt := now.Add(-time.Minute)
	purchaseID := uuid.MustParse("6f1c2a5e-8a57-4b8e-9d64-2f0a3b1c9e77")

	pendingPurchase := func() *entities.Purchase {
		return &entities.Purchase{
			ID:               purchaseID,
			ProfileID:        "42",
			WalletAddress:    testPlayerWallet,
			RecipientAddress: "UQB1tZNtifeLxqQmWUfI9AHVtjvrt3x85Jv6XmkvMiDIt0mS",
			AmountNano:       150000000,
			Status:           entities.PurchaseStatusPending,
			InitiatedAt:      initiatedAt,
			ValidUntil:       initiatedAt.Add(20 * time.Minute),
		}
	}
	payment := func(hash string, at time.Time) *entities.ChainTransaction {
		return &entities.ChainTransaction{
			Hash:  hash,
			Utime: at,
			OutMessages: []entities.ChainMessage{
				{Destination: testRecipientRaw, ValueNano: 150000000 - 400000},
			},
		}
	}

	t.Run("matching transfer credits reward", func(t *testing.T) {
		m := newPurchaseMocks()
		windowStart := now.Add(-2 * time.Hour)
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(pendingPurchase(), nil)
		m.indexer.On("GetTransactions", ctx, testPlayerWallet, 3).Return([]*entities.ChainTransaction{
			payment("hash-1", initiatedAt.Add(20*time.Second)),
		}, nil)
		m.purchaseRepo.On("IsTxHashUsed", ctx, "hash-1").Return(false, nil)
		m.profileRepo.On("GetByIDForUpdate", ctx, "42").Return(&entities.Profile{
			ID:                      "42",
			Points:                  100,
			DailyPurchases:          1,
			PurchaseWindowStartedAt: &windowStart,
		}, nil)
		m.profileRepo.On("SetPurchaseWindow", ctx, "42", 2, &windowStart).Return(nil)
		m.purchaseRepo.On("MarkVerified", ctx, purchaseID, "hash-1", now).Return(nil)
		m.profileRepo.On("AddPoints", ctx, "42", int64(500)).Return(int64(600), nil)
		m.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.PointsHistory) bool {
			return h.TransactionType == entities.TransactionTypePurchaseReward &&
				h.PointsBefore == 100 &&
				h.PointsAfter == 600 &&
				*h.RelatedID == purchaseID.String()
		})).Return(nil)
		m.publisher.On("Publish", mock.AnythingOfType("events.PointsChangeEvent")).Return(nil)
		m.publisher.On("Publish", mock.MatchedBy(func(e events.PurchaseVerifiedEvent) bool {
			return e.TxHash == "hash-1" && e.Reward == 500
		})).Return(nil)

		result, err := m.service(now).VerifyPurchase(ctx, "42", purchaseID)

		require.NoError(t, err)
		assert.Equal(t, "hash-1", result.TxHash)
		assert.Equal(t, int64(600), result.NewPoints)
		assert.Equal(t, 2, result.DailyPurchases)
		m.profileRepo.AssertExpectations(t)
		m.purchaseRepo.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
	})

	t.Run("full purchase window refuses another verification", func(t *testing.T) {
		m := newPurchaseMocks()
		windowStart := now.Add(-2 * time.Hour)
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(pendingPurchase(), nil)
		m.indexer.On("GetTransactions", ctx, testPlayerWallet, 3).Return([]*entities.ChainTransaction{
			payment("hash-3", initiatedAt.Add(20*time.Second)),
		}, nil)
		m.purchaseRepo.On("IsTxHashUsed", ctx, "hash-3").Return(false, nil)
		m.profileRepo.On("GetByIDForUpdate", ctx, "42").Return(&entities.Profile{
			ID:                      "42",
			Points:                  100,
			DailyPurchases:          2,
			PurchaseWindowStartedAt: &windowStart,
		}, nil)

		_, err := m.service(now).VerifyPurchase(ctx, "42", purchaseID)

		assert.ErrorIs(t, err, entities.ErrPurchaseLimitReached)
		m.profileRepo.AssertNotCalled(t, "SetPurchaseWindow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.purchaseRepo.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.profileRepo.AssertNotCalled(t, "AddPoints", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("verification inside cooldown is refused", func(t *testing.T) {
		m := newPurchaseMocks()
		purchase := pendingPurchase()
		purchase.InitiatedAt = now.Add(-5 * time.Second)
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(purchase, nil)

		_, err := m.service(now).VerifyPurchase(ctx, "42", purchaseID)

		assert.ErrorIs(t, err, entities.ErrVerifyCooldown)
		m.indexer.AssertNotCalled(t, "GetTransactions", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("purchase of another profile is unknown", func(t *testing.T) {
		m := newPurchaseMocks()
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(pendingPurchase(), nil)

		_, err := m.service(now).VerifyPurchase(ctx, "7", purchaseID)

		assert.ErrorIs(t, err, entities.ErrUnknownPurchase)
	})

	t.Run("verified purchase is not credited twice", func(t *testing.T) {
		m := newPurchaseMocks()
		purchase := pendingPurchase()
		purchase.Status = entities.PurchaseStatusVerified
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(purchase, nil)

		_, err := m.service(now).VerifyPurchase(ctx, "42", purchaseID)

		assert.ErrorIs(t, err, entities.ErrPurchaseAlreadyVerified)
	})

	t.Run("transfer older than the purchase is ignored", func(t *testing.T) {
		m := newPurchaseMocks()
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(pendingPurchase(), nil)
		m.indexer.On("GetTransactions", ctx, testPlayerWallet, 3).Return([]*entities.ChainTransaction{
			payment("old-hash", initiatedAt.Add(-time.Second)),
		}, nil)

		_, err := m.service(now).VerifyPurchase(ctx, "42", purchaseID)

		assert.ErrorIs(t, err, entities.ErrPurchaseNotFound)
		m.purchaseRepo.AssertNotCalled(t, "IsTxHashUsed", mock.Anything, mock.Anything)
	})

	t.Run("used transaction is skipped", func(t *testing.T) {
		m := newPurchaseMocks()
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(pendingPurchase(), nil)
		m.indexer.On("GetTransactions", ctx, testPlayerWallet, 3).Return([]*entities.ChainTransaction{
			payment("used-hash", initiatedAt.Add(10*time.Second)),
		}, nil)
		m.purchaseRepo.On("IsTxHashUsed", ctx, "used-hash").Return(true, nil)

		_, err := m.service(now).VerifyPurchase(ctx, "42", purchaseID)

		assert.ErrorIs(t, err, entities.ErrPurchaseNotFound)
		m.purchaseRepo.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong amount is ignored", func(t *testing.T) {
		m := newPurchaseMocks()
		tx := payment("cheap-hash", initiatedAt.Add(10*time.Second))
		tx.OutMessages[0].ValueNano = 100000000
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(pendingPurchase(), nil)
		m.indexer.On("GetTransactions", ctx, testPlayerWallet, 3).Return([]*entities.ChainTransaction{tx}, nil)

		_, err := m.service(now).VerifyPurchase(ctx, "42", purchaseID)

		assert.ErrorIs(t, err, entities.ErrPurchaseNotFound)
	})

	t.Run("indexer failure reads as not found", func(t *testing.T) {
		m := newPurchaseMocks()
		m.purchaseRepo.On("GetByIDForUpdate", ctx, purchaseID).Return(pendingPurchase(), nil)
		m.indexer.On("GetTransactions", ctx, testPlayerWallet, 3).Return(nil, errors.New("toncenter unavailable"))

		_, err := m.service(now).VerifyPurchase(ctx, "42", purchaseID)

		assert.ErrorIs(t, err, entities.ErrPurchaseNotFound)
		assert.Contains(t, err.Error(), "toncenter unavailable")
	})
}

func TestPurchaseService_ExpireStalePurchases(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	now := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	m := newPurchaseMocks()
	m.purchaseRepo.On("ExpirePending", ctx, now.Add(-20*time.Minute)).Return(int64(3), nil)

	expired, err := m.service(now).ExpireStalePurchases(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)
	m.purchaseRepo.AssertExpectations(t)
}
