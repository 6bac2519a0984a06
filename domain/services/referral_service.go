package services

import (
	"context"
	"fmt"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/interfaces"
	"tonflip/domain/utils"

	log "github.com/sirupsen/logrus"
)

type referralService struct {
	profileRepo    interfaces.ProfileRepository
	referralRepo   interfaces.ReferralRepository
	historyRepo    interfaces.PointsHistoryRepository
	eventPublisher interfaces.EventPublisher
}

// NewReferralService creates a new referral service
func NewReferralService(profileRepo interfaces.ProfileRepository, referralRepo interfaces.ReferralRepository, historyRepo interfaces.PointsHistoryRepository, eventPublisher interfaces.EventPublisher) interfaces.ReferralService {
	return &referralService{
		profileRepo:    profileRepo,
		referralRepo:   referralRepo,
		historyRepo:    historyRepo,
		eventPublisher: eventPublisher,
	}
}

func (s *referralService) CreditSignup(ctx context.Context, referrerID, referredID string) error {
	bonus := config.Get().ReferrerSignupBonus * entities.CentipointsPerPoint

	if err := s.profileRepo.AddClaimable(ctx, referrerID, bonus); err != nil {
		return fmt.Errorf("failed to credit referrer signup bonus: %w", err)
	}
	if err := s.profileRepo.IncrementReferrals(ctx, referrerID); err != nil {
		return fmt.Errorf("failed to increment referral count: %w", err)
	}

	s.publishCredit(events.ReferralCreditedEvent{
		ReferrerID:        referrerID,
		ReferredID:        referredID,
		AmountCentipoints: bonus,
		Reason:            "signup",
	})
	return nil
}

func (s *referralService) CreditCommission(ctx context.Context, betID int64, bettorID string, amount int64) (bool, error) {
	bettor, err := s.profileRepo.GetByID(ctx, bettorID)
	if err != nil {
		return false, fmt.Errorf("failed to get bettor profile: %w", err)
	}
	if bettor == nil || !bettor.IsReferred() {
		return false, nil
	}

	referrerID, err := s.referralRepo.ResolveCode(ctx, *bettor.ReferredBy)
	if err != nil {
		return false, fmt.Errorf("failed to resolve referrer: %w", err)
	}
	if referrerID == "" || referrerID == bettorID {
		return false, nil
	}

	commission := entities.CommissionCentipoints(amount, config.Get().ReferralCommissionPercent)
	if commission <= 0 {
		return false, nil
	}

	recorded, err := s.referralRepo.RecordCommission(ctx, &entities.ReferralCommission{
		BetID:             betID,
		ReferrerID:        referrerID,
		ReferredID:        bettorID,
		AmountCentipoints: commission,
	})
	if err != nil {
		return false, fmt.Errorf("failed to record commission: %w", err)
	}
	if !recorded {
		log.WithField("betID", betID).Debug("Commission already credited for bet")
		return false, nil
	}

	if err := s.profileRepo.AddClaimable(ctx, referrerID, commission); err != nil {
		return false, fmt.Errorf("failed to credit commission: %w", err)
	}

	s.publishCredit(events.ReferralCreditedEvent{
		ReferrerID:        referrerID,
		ReferredID:        bettorID,
		AmountCentipoints: commission,
		Reason:            "commission",
		BetID:             &betID,
	})
	return true, nil
}

func (s *referralService) ClaimEarnings(ctx context.Context, profileID string) (*entities.ReferralClaimResult, error) {
	profile, err := s.profileRepo.GetByIDForUpdate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}

	claim := profile.ClaimablePoints()
	if claim <= 0 {
		return nil, entities.ErrNothingToClaim
	}

	updated, err := s.profileRepo.ClaimReferralEarnings(ctx, profileID, claim)
	if err != nil {
		return nil, fmt.Errorf("failed to claim referral earnings: %w", err)
	}

	history := &entities.PointsHistory{
		ProfileID:       profileID,
		PointsBefore:    profile.Points,
		PointsAfter:     updated.Points,
		ChangeAmount:    claim,
		TransactionType: entities.TransactionTypeReferralClaim,
		Metadata: map[string]any{
			"remainingCentipoints": updated.ClaimableCentipoints,
		},
	}
	if err := utils.RecordPointsChange(ctx, s.historyRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	return &entities.ReferralClaimResult{
		Claimed:               claim,
		NewPoints:             updated.Points,
		RemainingCentipoints:  updated.ClaimableCentipoints,
		TotalReferralEarnings: updated.TotalReferralEarnings,
	}, nil
}

func (s *referralService) ListReferredUsers(ctx context.Context, profileID string) ([]*entities.ReferredUser, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}

	referred, err := s.profileRepo.ListReferredBy(ctx, profile.ReferralCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list referred users: %w", err)
	}
	return referred, nil
}

func (s *referralService) publishCredit(event events.ReferralCreditedEvent) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish referral credited event")
	}
}
