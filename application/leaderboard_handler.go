package application

import (
	"context"
	"fmt"

	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
	"tonflip/domain/services"
)

// LeaderboardHandlerImpl implements the LeaderboardHandler interface
type LeaderboardHandlerImpl struct {
	uowFactory UnitOfWorkFactory
	cache      interfaces.LeaderboardCache
}

// NewLeaderboardHandler creates a new leaderboard handler. cache may be nil.
func NewLeaderboardHandler(uowFactory UnitOfWorkFactory, cache interfaces.LeaderboardCache) *LeaderboardHandlerImpl {
	return &LeaderboardHandlerImpl{uowFactory: uowFactory, cache: cache}
}

func (h *LeaderboardHandlerImpl) readOnly(ctx context.Context, read func(interfaces.LeaderboardService) error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return read(services.NewLeaderboardService(uow.ProfileRepository(), uow.BetRepository(), h.cache))
}

// GetLeaderboard returns the top profiles for sort ("points", "volume" or "wins")
func (h *LeaderboardHandlerImpl) GetLeaderboard(ctx context.Context, sort string) ([]*entities.LeaderboardEntry, error) {
	parsed, err := entities.ParseLeaderboardSort(sort)
	if err != nil {
		return nil, err
	}

	var entries []*entities.LeaderboardEntry
	err = h.readOnly(ctx, func(svc interfaces.LeaderboardService) error {
		var err error
		entries, err = svc.GetLeaderboard(ctx, parsed)
		return err
	})
	return entries, err
}

// GetRecentPlays returns the latest bets, globally when profileID is empty
func (h *LeaderboardHandlerImpl) GetRecentPlays(ctx context.Context, profileID string) ([]*entities.Bet, error) {
	var bets []*entities.Bet
	err := h.readOnly(ctx, func(svc interfaces.LeaderboardService) error {
		var err error
		bets, err = svc.GetRecentPlays(ctx, profileID)
		return err
	})
	return bets, err
}
