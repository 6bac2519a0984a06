package application

import (
	"context"
	"fmt"
	"time"

	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
	"tonflip/domain/services"

	log "github.com/sirupsen/logrus"
)

// WagerHandlerImpl implements the WagerHandler interface
type WagerHandlerImpl struct {
	uowFactory UnitOfWorkFactory
	flipper    interfaces.CoinFlipper
	clock      interfaces.Clock
}

// NewWagerHandler creates a new wager handler. The flipper draws every outcome.
func NewWagerHandler(uowFactory UnitOfWorkFactory, flipper interfaces.CoinFlipper) *WagerHandlerImpl {
	return &WagerHandlerImpl{
		uowFactory: uowFactory,
		flipper:    flipper,
		clock:      time.Now,
	}
}

// Flip validates the wager, draws the outcome and settles it in one transaction
func (h *WagerHandlerImpl) Flip(ctx context.Context, profileID, choice string, amount int64) (*entities.BetResult, error) {
	side, err := entities.ParseCoinSide(choice)
	if err != nil {
		return nil, err
	}

	// Bounds are checked before a transaction is opened
	if err := services.NewWagerService(nil, nil, nil, nil, h.clock).ValidateWager(amount); err != nil {
		return nil, err
	}

	outcome := h.flipper.Flip()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagerService := services.NewWagerService(
		uow.ProfileRepository(),
		uow.BetRepository(),
		uow.PointsHistoryRepository(),
		uow.EventBus(),
		h.clock,
	)

	result, err := wagerService.SettleWager(ctx, profileID, side, outcome, amount)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"profileID": profileID,
		"betID":     result.BetID,
		"choice":    result.Choice,
		"result":    result.Result,
		"amount":    amount,
		"newPoints": result.NewPoints,
	}).Info("Settled coin flip")

	return result, nil
}
