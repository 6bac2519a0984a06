package services

import (
	"context"
	"fmt"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type leaderboardService struct {
	profileRepo interfaces.ProfileRepository
	betRepo     interfaces.BetRepository
	cache       interfaces.LeaderboardCache
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil.
func NewLeaderboardService(profileRepo interfaces.ProfileRepository, betRepo interfaces.BetRepository, cache interfaces.LeaderboardCache) interfaces.LeaderboardService {
	return &leaderboardService{
		profileRepo: profileRepo,
		betRepo:     betRepo,
		cache:       cache,
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, sort entities.LeaderboardSort) ([]*entities.LeaderboardEntry, error) {
	cfg := config.Get()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, sort)
		if err != nil {
			log.WithError(err).WithField("sort", sort).Warn("Leaderboard cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	entries, err := s.profileRepo.ListTop(ctx, sort, cfg.LeaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sort, entries, cfg.LeaderboardCacheTTL); err != nil {
			log.WithError(err).WithField("sort", sort).Warn("Leaderboard cache write failed")
		}
	}

	return entries, nil
}

func (s *leaderboardService) GetRecentPlays(ctx context.Context, profileID string) ([]*entities.Bet, error) {
	limit := config.Get().RecentPlaysLimit

	var (
		bets []*entities.Bet
		err  error
	)
	if profileID == "" {
		bets, err = s.betRepo.ListRecent(ctx, limit)
	} else {
		bets, err = s.betRepo.ListRecentByProfile(ctx, profileID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recent plays: %w", err)
	}
	return bets, nil
}
