package services

import (
	"context"
	"testing"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReferralService_CreditSignup(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	profileRepo := new(testhelpers.MockProfileRepository)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewReferralService(profileRepo, new(testhelpers.MockReferralRepository), new(testhelpers.MockPointsHistoryRepository), publisher)

	profileRepo.On("AddClaimable", ctx, "7", int64(25000)).Return(nil)
	profileRepo.On("IncrementReferrals", ctx, "7").Return(nil)
	publisher.On("Publish", events.ReferralCreditedEvent{
		ReferrerID:        "7",
		ReferredID:        "42",
		AmountCentipoints: 25000,
		Reason:            "signup",
	}).Return(nil)

	require.NoError(t, service.CreditSignup(ctx, "7", "42"))

	profileRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestReferralService_CreditCommission(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	code := "referrer_code"

	t.Run("credits five percent in centipoints", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		referralRepo := new(testhelpers.MockReferralRepository)
		publisher := new(testhelpers.MockEventPublisher)
		service := NewReferralService(profileRepo, referralRepo, new(testhelpers.MockPointsHistoryRepository), publisher)

		profileRepo.On("GetByID", ctx, "42").Return(&entities.Profile{ID: "42", ReferredBy: &code}, nil)
		referralRepo.On("ResolveCode", ctx, code).Return("7", nil)
		referralRepo.On("RecordCommission", ctx, &entities.ReferralCommission{
			BetID:             9,
			ReferrerID:        "7",
			ReferredID:        "42",
			AmountCentipoints: 1505,
		}).Return(true, nil)
		profileRepo.On("AddClaimable", ctx, "7", int64(1505)).Return(nil)
		publisher.On("Publish", mock.MatchedBy(func(e events.ReferralCreditedEvent) bool {
			return e.Reason == "commission" && e.BetID != nil && *e.BetID == 9
		})).Return(nil)

		credited, err := service.CreditCommission(ctx, 9, "42", 301)

		require.NoError(t, err)
		assert.True(t, credited)
		profileRepo.AssertExpectations(t)
		referralRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("redelivered bet is credited once", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		referralRepo := new(testhelpers.MockReferralRepository)
		publisher := new(testhelpers.MockEventPublisher)
		service := NewReferralService(profileRepo, referralRepo, new(testhelpers.MockPointsHistoryRepository), publisher)

		profileRepo.On("GetByID", ctx, "42").Return(&entities.Profile{ID: "42", ReferredBy: &code}, nil)
		referralRepo.On("ResolveCode", ctx, code).Return("7", nil)
		referralRepo.On("RecordCommission", ctx, mock.Anything).Return(false, nil)

		credited, err := service.CreditCommission(ctx, 9, "42", 300)

		require.NoError(t, err)
		assert.False(t, credited)
		profileRepo.AssertNotCalled(t, "AddClaimable", mock.Anything, mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("unreferred bettor earns nothing", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		referralRepo := new(testhelpers.MockReferralRepository)
		service := NewReferralService(profileRepo, referralRepo, new(testhelpers.MockPointsHistoryRepository), new(testhelpers.MockEventPublisher))

		profileRepo.On("GetByID", ctx, "42").Return(&entities.Profile{ID: "42"}, nil)

		credited, err := service.CreditCommission(ctx, 9, "42", 300)

		require.NoError(t, err)
		assert.False(t, credited)
		referralRepo.AssertNotCalled(t, "ResolveCode", mock.Anything, mock.Anything)
	})
}

func TestReferralService_ClaimEarnings(t *testing.T) {
	ctx := context.Background()

	t.Run("moves whole points and keeps the fraction", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		historyRepo := new(testhelpers.MockPointsHistoryRepository)
		publisher := new(testhelpers.MockEventPublisher)
		service := NewReferralService(profileRepo, new(testhelpers.MockReferralRepository), historyRepo, publisher)

		profileRepo.On("GetByIDForUpdate", ctx, "7").Return(&entities.Profile{ID: "7", Points: 100, ClaimableCentipoints: 27540}, nil)
		profileRepo.On("ClaimReferralEarnings", ctx, "7", int64(275)).Return(&entities.Profile{
			ID:                    "7",
			Points:                375,
			ClaimableCentipoints:  40,
			TotalReferralEarnings: 275,
		}, nil)
		historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.PointsHistory) bool {
			return h.PointsBefore == 100 &&
				h.PointsAfter == 375 &&
				h.ChangeAmount == 275 &&
				h.TransactionType == entities.TransactionTypeReferralClaim
		})).Return(nil)
		publisher.On("Publish", mock.AnythingOfType("events.PointsChangeEvent")).Return(nil)

		result, err := service.ClaimEarnings(ctx, "7")

		require.NoError(t, err)
		assert.Equal(t, int64(275), result.Claimed)
		assert.Equal(t, int64(375), result.NewPoints)
		assert.Equal(t, int64(40), result.RemainingCentipoints)
		assert.Equal(t, int64(275), result.TotalReferralEarnings)
		profileRepo.AssertExpectations(t)
		historyRepo.AssertExpectations(t)
	})

	t.Run("less than a point is nothing to claim", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		service := NewReferralService(profileRepo, new(testhelpers.MockReferralRepository), new(testhelpers.MockPointsHistoryRepository), new(testhelpers.MockEventPublisher))

		profileRepo.On("GetByIDForUpdate", ctx, "7").Return(&entities.Profile{ID: "7", ClaimableCentipoints: 99}, nil)

		_, err := service.ClaimEarnings(ctx, "7")

		assert.ErrorIs(t, err, entities.ErrNothingToClaim)
		profileRepo.AssertNotCalled(t, "ClaimReferralEarnings", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReferralService_ListReferredUsers(t *testing.T) {
	ctx := context.Background()
	profileRepo := new(testhelpers.MockProfileRepository)
	service := NewReferralService(profileRepo, new(testhelpers.MockReferralRepository), new(testhelpers.MockPointsHistoryRepository), new(testhelpers.MockEventPublisher))

	referred := []*entities.ReferredUser{{ProfileID: "42", Username: "flipper", Points: 200}}
	profileRepo.On("GetByID", ctx, "7").Return(&entities.Profile{ID: "7", ReferralCode: "seven_code"}, nil)
	profileRepo.On("ListReferredBy", ctx, "seven_code").Return(referred, nil)

	users, err := service.ListReferredUsers(ctx, "7")

	require.NoError(t, err)
	assert.Equal(t, referred, users)
}
