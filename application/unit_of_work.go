package application

import (
	"context"

	"tonflip/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and releases buffered events
	Commit() error

	// Rollback rolls back the transaction and drops buffered events
	Rollback() error

	// Repository getters
	ProfileRepository() interfaces.ProfileRepository
	ReferralRepository() interfaces.ReferralRepository
	BetRepository() interfaces.BetRepository
	PointsHistoryRepository() interfaces.PointsHistoryRepository
	TaskClaimRepository() interfaces.TaskClaimRepository
	PurchaseRepository() interfaces.PurchaseRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
