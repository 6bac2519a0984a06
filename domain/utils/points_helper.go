package utils

import (
	"context"
	"fmt"

	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordPointsChange writes a ledger entry and emits the matching PointsChangeEvent.
// Every change to spendable points goes through here.
func RecordPointsChange(ctx context.Context, historyRepo interfaces.PointsHistoryRepository, eventPublisher interfaces.EventPublisher, history *entities.PointsHistory) error {
	if err := historyRepo.Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record points history: %w", err)
	}

	event := events.PointsChangeEvent{
		ProfileID:       history.ProfileID,
		OldPoints:       history.PointsBefore,
		NewPoints:       history.PointsAfter,
		ChangeAmount:    history.ChangeAmount,
		TransactionType: history.TransactionType,
	}
	log.WithFields(log.Fields{
		"profileID":       event.ProfileID,
		"oldPoints":       event.OldPoints,
		"newPoints":       event.NewPoints,
		"changeAmount":    event.ChangeAmount,
		"transactionType": event.TransactionType,
	}).Debug("Publishing PointsChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish points change event")
	}

	return nil
}
