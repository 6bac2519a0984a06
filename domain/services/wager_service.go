package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/interfaces"
	"tonflip/domain/utils"

	log "github.com/sirupsen/logrus"
)

type wagerService struct {
	profileRepo    interfaces.ProfileRepository
	betRepo        interfaces.BetRepository
	historyRepo    interfaces.PointsHistoryRepository
	eventPublisher interfaces.EventPublisher
	now            interfaces.Clock
}

// NewWagerService creates a new wager service. A nil clock uses time.Now.
func NewWagerService(profileRepo interfaces.ProfileRepository, betRepo interfaces.BetRepository, historyRepo interfaces.PointsHistoryRepository, eventPublisher interfaces.EventPublisher, clock interfaces.Clock) interfaces.WagerService {
	if clock == nil {
		clock = time.Now
	}
	return &wagerService{
		profileRepo:    profileRepo,
		betRepo:        betRepo,
		historyRepo:    historyRepo,
		eventPublisher: eventPublisher,
		now:            clock,
	}
}

func (s *wagerService) ValidateWager(amount int64) error {
	cfg := config.Get()
	if amount < cfg.MinWager || amount > cfg.MaxWager {
		return fmt.Errorf("%w: must be between %d and %d", entities.ErrInvalidWager, cfg.MinWager, cfg.MaxWager)
	}
	return nil
}

func (s *wagerService) SettleWager(ctx context.Context, profileID string, choice, outcome entities.CoinSide, amount int64) (*entities.BetResult, error) {
	if err := s.ValidateWager(amount); err != nil {
		return nil, err
	}
	if _, err := entities.ParseCoinSide(string(choice)); err != nil {
		return nil, err
	}
	if _, err := entities.ParseCoinSide(string(outcome)); err != nil {
		return nil, fmt.Errorf("invalid drawn outcome: %w", err)
	}

	profile, err := s.profileRepo.GetByIDForUpdate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}
	if !profile.CanAfford(amount) {
		return nil, fmt.Errorf("%w: have %d, need %d", entities.ErrInsufficientPoints, profile.Points, amount)
	}

	won := outcome == choice
	newPoints := profile.Points - amount
	transactionType := entities.TransactionTypeFlipLoss
	betOutcome := entities.BetOutcomeRugged
	if won {
		newPoints = profile.Points + amount
		transactionType = entities.TransactionTypeFlipWin
		betOutcome = entities.BetOutcomeDoubled
	}
	if newPoints < 0 {
		newPoints = 0
	}

	now := s.now()
	if err := s.profileRepo.ApplyFlip(ctx, profileID, newPoints, amount, won, now); err != nil {
		return nil, fmt.Errorf("failed to apply flip: %w", err)
	}

	bet := &entities.Bet{
		ProfileID: profileID,
		Username:  profile.DisplayName(),
		Amount:    amount,
		Choice:    choice,
		Result:    outcome,
		Outcome:   betOutcome,
		Avatar:    profile.Avatar(),
		CreatedAt: now,
	}
	if err := s.betRepo.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet record: %w", err)
	}

	betID := strconv.FormatInt(bet.ID, 10)
	history := &entities.PointsHistory{
		ProfileID:       profileID,
		PointsBefore:    profile.Points,
		PointsAfter:     newPoints,
		ChangeAmount:    newPoints - profile.Points,
		TransactionType: transactionType,
		Metadata: map[string]any{
			"amount": amount,
			"choice": choice,
			"result": outcome,
		},
		RelatedID: &betID,
	}
	if err := utils.RecordPointsChange(ctx, s.historyRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	settled := events.BetSettledEvent{
		BetID:     bet.ID,
		ProfileID: profileID,
		Username:  bet.Username,
		Avatar:    bet.Avatar,
		Amount:    amount,
		Choice:    choice,
		Result:    outcome,
		Outcome:   betOutcome,
		NewPoints: newPoints,
		SettledAt: now,
	}
	if err := s.eventPublisher.Publish(settled); err != nil {
		log.WithError(err).Error("Failed to publish bet settled event")
	}

	return &entities.BetResult{
		BetID:     bet.ID,
		Choice:    choice,
		Result:    outcome,
		Won:       won,
		Amount:    amount,
		NewPoints: newPoints,
	}, nil
}
