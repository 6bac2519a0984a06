package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardService_GetLeaderboard(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	entries := []*entities.LeaderboardEntry{
		{Rank: 1, ProfileID: "7", Username: "whale", Points: 90000},
		{Rank: 2, ProfileID: "42", Username: "flipper", Points: 1200},
	}

	t.Run("cache hit skips the database", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		cache := new(testhelpers.MockLeaderboardCache)
		cache.On("Get", ctx, entities.LeaderboardSortPoints).Return(entries, nil)

		got, err := NewLeaderboardService(profileRepo, nil, cache).GetLeaderboard(ctx, entities.LeaderboardSortPoints)

		require.NoError(t, err)
		assert.Equal(t, entries, got)
		profileRepo.AssertNotCalled(t, "ListTop", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		cache := new(testhelpers.MockLeaderboardCache)
		cache.On("Get", ctx, entities.LeaderboardSortWins).Return(nil, nil)
		profileRepo.On("ListTop", ctx, entities.LeaderboardSortWins, 300).Return(entries, nil)
		cache.On("Set", ctx, entities.LeaderboardSortWins, entries, 30*time.Second).Return(nil)

		got, err := NewLeaderboardService(profileRepo, nil, cache).GetLeaderboard(ctx, entities.LeaderboardSortWins)

		require.NoError(t, err)
		assert.Len(t, got, 2)
		cache.AssertExpectations(t)
	})

	t.Run("cache failure falls back to the database", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		cache := new(testhelpers.MockLeaderboardCache)
		cache.On("Get", ctx, entities.LeaderboardSortVolume).Return(nil, errors.New("connection refused"))
		profileRepo.On("ListTop", ctx, entities.LeaderboardSortVolume, 300).Return(entries, nil)
		cache.On("Set", ctx, entities.LeaderboardSortVolume, entries, mock.Anything).Return(errors.New("connection refused"))

		got, err := NewLeaderboardService(profileRepo, nil, cache).GetLeaderboard(ctx, entities.LeaderboardSortVolume)

		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("works without a cache", func(t *testing.T) {
		profileRepo := new(testhelpers.MockProfileRepository)
		profileRepo.On("ListTop", ctx, entities.LeaderboardSortPoints, 300).Return(entries, nil)

		got, err := NewLeaderboardService(profileRepo, nil, nil).GetLeaderboard(ctx, entities.LeaderboardSortPoints)

		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})
}

func TestLeaderboardService_GetRecentPlays(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	bets := []*entities.Bet{{ID: 1, ProfileID: "42", Amount: 100}}

	t.Run("global feed", func(t *testing.T) {
		betRepo := new(testhelpers.MockBetRepository)
		betRepo.On("ListRecent", ctx, 10).Return(bets, nil)

		got, err := NewLeaderboardService(nil, betRepo, nil).GetRecentPlays(ctx, "")

		require.NoError(t, err)
		assert.Equal(t, bets, got)
	})

	t.Run("single player", func(t *testing.T) {
		betRepo := new(testhelpers.MockBetRepository)
		betRepo.On("ListRecentByProfile", ctx, "42", 10).Return(bets, nil)

		got, err := NewLeaderboardService(nil, betRepo, nil).GetRecentPlays(ctx, "42")

		require.NoError(t, err)
		assert.Equal(t, bets, got)
		betRepo.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything)
	})
}
