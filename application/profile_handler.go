package application

import (
	"context"
	"fmt"
	"time"

	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
	"tonflip/domain/services"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type bootstrapResult struct {
	profile *entities.Profile
	created bool
}

// ProfileHandlerImpl implements the ProfileHandler interface
type ProfileHandlerImpl struct {
	uowFactory UnitOfWorkFactory
	clock      interfaces.Clock
	bootstraps singleflight.Group
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(uowFactory UnitOfWorkFactory) *ProfileHandlerImpl {
	return &ProfileHandlerImpl{
		uowFactory: uowFactory,
		clock:      time.Now,
	}
}

func (h *ProfileHandlerImpl) profileService(uow UnitOfWork) interfaces.ProfileService {
	return services.NewProfileService(
		uow.ProfileRepository(),
		uow.ReferralRepository(),
		uow.PointsHistoryRepository(),
		uow.EventBus(),
		h.clock,
	)
}

// Bootstrap loads or creates the profile of an authenticated Telegram user
func (h *ProfileHandlerImpl) Bootstrap(ctx context.Context, user entities.TelegramUser, referralCode string) (*entities.Profile, bool, error) {
	// The shared call is detached from the caller that started it, each caller
	// still stops waiting when its own context ends.
	ch := h.bootstraps.DoChan(user.ProfileID(), func() (interface{}, error) {
		return h.bootstrap(context.WithoutCancel(ctx), user, referralCode)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		if res.Shared {
			log.WithField("profileID", user.ProfileID()).Debug("Joined in-flight profile bootstrap")
		}
		result := res.Val.(*bootstrapResult)
		return result.profile, result.created, nil
	}
}

func (h *ProfileHandlerImpl) bootstrap(ctx context.Context, user entities.TelegramUser, referralCode string) (*bootstrapResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	profile, created, err := h.profileService(uow).GetOrCreateProfile(ctx, user, referralCode)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &bootstrapResult{profile: profile, created: created}, nil
}

// GetProfile returns ErrProfileNotFound for unknown ids
func (h *ProfileHandlerImpl) GetProfile(ctx context.Context, profileID string) (*entities.Profile, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return h.profileService(uow).GetProfile(ctx, profileID)
}

// ConnectWallet stores the caller's TON wallet
func (h *ProfileHandlerImpl) ConnectWallet(ctx context.Context, profileID, address string) (*entities.Profile, error) {
	return h.updateWallet(ctx, func(svc interfaces.ProfileService) (*entities.Profile, error) {
		return svc.ConnectWallet(ctx, profileID, address)
	})
}

// DisconnectWallet clears the caller's TON wallet
func (h *ProfileHandlerImpl) DisconnectWallet(ctx context.Context, profileID string) (*entities.Profile, error) {
	return h.updateWallet(ctx, func(svc interfaces.ProfileService) (*entities.Profile, error) {
		return svc.DisconnectWallet(ctx, profileID)
	})
}

func (h *ProfileHandlerImpl) updateWallet(ctx context.Context, update func(interfaces.ProfileService) (*entities.Profile, error)) (*entities.Profile, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	profile, err := update(h.profileService(uow))
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return profile, nil
}
