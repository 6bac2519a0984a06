package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/interfaces"
	"tonflip/domain/utils"

	log "github.com/sirupsen/logrus"
)

type profileService struct {
	profileRepo    interfaces.ProfileRepository
	referralRepo   interfaces.ReferralRepository
	historyRepo    interfaces.PointsHistoryRepository
	eventPublisher interfaces.EventPublisher
	now            interfaces.Clock
}

// NewProfileService creates a new profile service. A nil clock uses time.Now.
func NewProfileService(profileRepo interfaces.ProfileRepository, referralRepo interfaces.ReferralRepository, historyRepo interfaces.PointsHistoryRepository, eventPublisher interfaces.EventPublisher, clock interfaces.Clock) interfaces.ProfileService {
	if clock == nil {
		clock = time.Now
	}
	return &profileService{
		profileRepo:    profileRepo,
		referralRepo:   referralRepo,
		historyRepo:    historyRepo,
		eventPublisher: eventPublisher,
		now:            clock,
	}
}

func (s *profileService) GetOrCreateProfile(ctx context.Context, user entities.TelegramUser, referralCode string) (*entities.Profile, bool, error) {
	profileID := user.ProfileID()

	existing, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get profile: %w", err)
	}
	if existing != nil {
		if existing.ApplyIdentity(user) {
			if err := s.profileRepo.UpdateIdentity(ctx, existing); err != nil {
				return nil, false, fmt.Errorf("failed to refresh profile identity: %w", err)
			}
		}
		return existing, false, nil
	}

	cfg := config.Get()
	profile := &entities.Profile{
		ID:           profileID,
		Points:       cfg.StartingPoints,
		ReferralCode: entities.NewReferralCode(),
	}
	profile.ApplyIdentity(user)

	referrerID, err := s.resolveReferrer(ctx, referralCode, profileID)
	if err != nil {
		return nil, false, err
	}
	if referrerID != "" {
		code := strings.TrimSpace(referralCode)
		profile.ReferredBy = &code
		profile.ClaimableCentipoints = cfg.ReferralSignupBonus * entities.CentipointsPerPoint
	}

	created, err := s.profileRepo.CreateIfNotExists(ctx, profile)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create profile: %w", err)
	}
	if !created {
		// Another session won the race, hand back its profile untouched
		winner, err := s.profileRepo.GetByID(ctx, profileID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to reload concurrently created profile: %w", err)
		}
		if winner == nil {
			return nil, false, fmt.Errorf("profile %s vanished after concurrent create", profileID)
		}
		return winner, false, nil
	}

	if err := s.referralRepo.CreateCode(ctx, profile.ReferralCode, profileID); err != nil {
		return nil, false, fmt.Errorf("failed to store referral code: %w", err)
	}

	history := &entities.PointsHistory{
		ProfileID:       profileID,
		PointsBefore:    0,
		PointsAfter:     profile.Points,
		ChangeAmount:    profile.Points,
		TransactionType: entities.TransactionTypeInitial,
		Metadata: map[string]any{
			"username":     profile.DisplayName(),
			"referralCode": referralCode,
		},
	}
	if err := utils.RecordPointsChange(ctx, s.historyRepo, s.eventPublisher, history); err != nil {
		return nil, false, err
	}

	createdEvent := events.ProfileCreatedEvent{
		ProfileID:              profileID,
		Username:               profile.DisplayName(),
		InitialPoints:          profile.Points,
		ReferralCode:           profile.ReferralCode,
		SignupBonusCentipoints: profile.ClaimableCentipoints,
	}
	if profile.ReferredBy != nil {
		createdEvent.ReferredBy = *profile.ReferredBy
	}
	if err := s.eventPublisher.Publish(createdEvent); err != nil {
		log.WithError(err).Error("Failed to publish profile created event")
	}

	if referrerID != "" {
		if err := s.eventPublisher.Publish(events.ReferralSignedUpEvent{ReferrerID: referrerID, ReferredID: profileID}); err != nil {
			log.WithError(err).Error("Failed to publish referral signup event")
		}
	}

	log.WithFields(log.Fields{
		"profileID":  profileID,
		"username":   profile.DisplayName(),
		"referrerID": referrerID,
	}).Info("Created profile")

	return profile, true, nil
}

// resolveReferrer maps a launch referral code to the referrer's profile id.
// Unknown codes and self-referrals resolve to "".
func (s *profileService) resolveReferrer(ctx context.Context, referralCode, profileID string) (string, error) {
	code := strings.TrimSpace(referralCode)
	if code == "" || code == profileID {
		return "", nil
	}

	referrerID, err := s.referralRepo.ResolveCode(ctx, code)
	if err != nil {
		log.WithFields(log.Fields{
			"profileID":    profileID,
			"referralCode": code,
			"error":        err,
		}).Warn("Failed to resolve referral code, creating profile without referrer")
		return "", nil
	}
	if referrerID == "" {
		log.WithFields(log.Fields{
			"profileID":    profileID,
			"referralCode": code,
		}).Warn("Ignoring unknown referral code")
		return "", nil
	}
	if referrerID == profileID {
		return "", nil
	}
	return referrerID, nil
}

func (s *profileService) GetProfile(ctx context.Context, profileID string) (*entities.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}
	return profile, nil
}

func (s *profileService) ConnectWallet(ctx context.Context, profileID, address string) (*entities.Profile, error) {
	address = strings.TrimSpace(address)
	if _, err := utils.NormalizeTONAddress(address); err != nil {
		return nil, err
	}

	profile, err := s.lockProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.profileRepo.SetWallet(ctx, profileID, &address, &now); err != nil {
		return nil, fmt.Errorf("failed to store wallet: %w", err)
	}

	profile.WalletAddress = &address
	profile.LastWalletConnectionAt = &now
	return profile, nil
}

func (s *profileService) DisconnectWallet(ctx context.Context, profileID string) (*entities.Profile, error) {
	profile, err := s.lockProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.SetWallet(ctx, profileID, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to clear wallet: %w", err)
	}

	profile.WalletAddress = nil
	return profile, nil
}

func (s *profileService) lockProfile(ctx context.Context, profileID string) (*entities.Profile, error) {
	profile, err := s.profileRepo.GetByIDForUpdate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}
	return profile, nil
}
