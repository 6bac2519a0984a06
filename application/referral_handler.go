package application

import (
	"context"
	"fmt"

	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
	"tonflip/domain/services"
)

// ReferralHandlerImpl implements the ReferralHandler interface
type ReferralHandlerImpl struct {
	uowFactory UnitOfWorkFactory
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(uowFactory UnitOfWorkFactory) *ReferralHandlerImpl {
	return &ReferralHandlerImpl{uowFactory: uowFactory}
}

func referralService(uow UnitOfWork) interfaces.ReferralService {
	return services.NewReferralService(
		uow.ProfileRepository(),
		uow.ReferralRepository(),
		uow.PointsHistoryRepository(),
		uow.EventBus(),
	)
}

// ClaimEarnings moves whole claimable referral points into spendable points
func (h *ReferralHandlerImpl) ClaimEarnings(ctx context.Context, profileID string) (*entities.ReferralClaimResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := referralService(uow).ClaimEarnings(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

// ListReferredUsers returns the profiles that signed up with the caller's code
func (h *ReferralHandlerImpl) ListReferredUsers(ctx context.Context, profileID string) ([]*entities.ReferredUser, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return referralService(uow).ListReferredUsers(ctx, profileID)
}

// creditSignup grants the referrer's signup bonus in its own transaction
func creditSignup(ctx context.Context, uowFactory UnitOfWorkFactory, referrerID, referredID string) error {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := referralService(uow).CreditSignup(ctx, referrerID, referredID); err != nil {
		return err
	}
	return uow.Commit()
}

// creditCommission credits the bettor's referrer for one bet in its own transaction
func creditCommission(ctx context.Context, uowFactory UnitOfWorkFactory, betID int64, bettorID string, amount int64) (bool, error) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	credited, err := referralService(uow).CreditCommission(ctx, betID, bettorID, amount)
	if err != nil {
		return false, err
	}
	if !credited {
		return false, nil
	}
	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
