package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
	"tonflip/domain/services"
	"tonflip/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// PurchaseHandlerImpl implements the PurchaseHandler interface
type PurchaseHandlerImpl struct {
	uowFactory UnitOfWorkFactory
	indexer    interfaces.ChainIndexer
	clock      interfaces.Clock
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(uowFactory UnitOfWorkFactory, indexer interfaces.ChainIndexer) *PurchaseHandlerImpl {
	return &PurchaseHandlerImpl{
		uowFactory: uowFactory,
		indexer:    indexer,
		clock:      time.Now,
	}
}

func (h *PurchaseHandlerImpl) purchaseService(uow UnitOfWork) interfaces.PurchaseService {
	return services.NewPurchaseService(
		uow.ProfileRepository(),
		uow.PurchaseRepository(),
		uow.PointsHistoryRepository(),
		h.indexer,
		uow.EventBus(),
		h.clock,
	)
}

// InitiatePurchase records a pending purchase and returns the transfer to sign
func (h *PurchaseHandlerImpl) InitiatePurchase(ctx context.Context, profileID string) (*entities.PurchaseIntent, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	intent, err := h.purchaseService(uow).InitiatePurchase(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return intent, nil
}

// VerifyPurchase matches the purchase against the wallet's recent transfers.
// The purchase row stays locked while the indexer is queried, so two
// verifications of one purchase cannot both credit it.
func (h *PurchaseHandlerImpl) VerifyPurchase(ctx context.Context, profileID string, purchaseID uuid.UUID) (*entities.PurchaseResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := h.purchaseService(uow).VerifyPurchase(ctx, profileID, purchaseID)
	if err != nil {
		observability.RecordPurchaseVerification(verificationResult(err))
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		observability.RecordPurchaseVerification("error")
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	observability.RecordPurchaseVerification("verified")
	return result, nil
}

// ExpireStalePurchases expires pending purchases past their validity
func (h *PurchaseHandlerImpl) ExpireStalePurchases(ctx context.Context) (int64, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	expired, err := h.purchaseService(uow).ExpireStalePurchases(ctx)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if expired > 0 {
		log.WithField("expired", expired).Info("Expired stale purchases")
	}
	return expired, nil
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, entities.ErrPurchaseNotFound):
		return "not_found"
	case errors.Is(err, entities.ErrVerifyCooldown):
		return "cooldown"
	case errors.Is(err, entities.ErrTransactionAlreadyUsed):
		return "tx_reused"
	case errors.Is(err, entities.ErrPurchaseExpired), errors.Is(err, entities.ErrPurchaseAlreadyVerified), errors.Is(err, entities.ErrPurchaseLimitReached):
		return "rejected"
	default:
		return "error"
	}
}
