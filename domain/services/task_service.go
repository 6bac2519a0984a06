package services

import (
	"context"
	"fmt"
	"time"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/interfaces"
	"tonflip/domain/utils"

	log "github.com/sirupsen/logrus"
)

type taskService struct {
	profileRepo    interfaces.ProfileRepository
	taskClaimRepo  interfaces.TaskClaimRepository
	historyRepo    interfaces.PointsHistoryRepository
	eventPublisher interfaces.EventPublisher
	now            interfaces.Clock
}

// NewTaskService creates a new task service. A nil clock uses time.Now.
func NewTaskService(profileRepo interfaces.ProfileRepository, taskClaimRepo interfaces.TaskClaimRepository, historyRepo interfaces.PointsHistoryRepository, eventPublisher interfaces.EventPublisher, clock interfaces.Clock) interfaces.TaskService {
	if clock == nil {
		clock = time.Now
	}
	return &taskService{
		profileRepo:    profileRepo,
		taskClaimRepo:  taskClaimRepo,
		historyRepo:    historyRepo,
		eventPublisher: eventPublisher,
		now:            clock,
	}
}

func (s *taskService) ListTasks(ctx context.Context, profileID string) ([]*entities.TaskStatus, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}

	claims, err := s.taskClaimRepo.GetClaims(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task claims: %w", err)
	}

	now := s.now()

	// Reset the stored purchase counter once its window has passed
	purchaseCount := profile.DailyPurchases
	if purchaseCount > 0 && utils.IsWindowExpired(profile.PurchaseWindowStartedAt, now, entities.PurchaseWindow) {
		purchaseCount = 0
		if err := s.profileRepo.SetPurchaseWindow(ctx, profileID, 0, nil); err != nil {
			return nil, fmt.Errorf("failed to reset purchase window: %w", err)
		}
	}
	hasBetToday := !utils.IsWindowExpired(profile.LastBetAt, now, entities.TaskCooldown)
	purchaseLimit := config.Get().DailyPurchaseLimit

	definitions := entities.TaskDefinitions()
	statuses := make([]*entities.TaskStatus, 0, len(definitions))
	for _, def := range definitions {
		status := &entities.TaskStatus{TaskDefinition: def}

		if claimedAt, ok := claims[def.ID]; ok {
			claimedAt := claimedAt
			status.LastClaimedAt = &claimedAt
			status.Completed = !utils.IsWindowExpired(&claimedAt, now, entities.TaskCooldown)
		}

		switch def.Type {
		case entities.TaskTypeBuyPoints:
			status.PurchaseCount = purchaseCount
			status.Completed = purchaseCount >= purchaseLimit
		case entities.TaskTypeDailyBet:
			status.HasBetToday = hasBetToday
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (s *taskService) ClaimTask(ctx context.Context, profileID string, taskID entities.TaskID) (*entities.TaskClaimResult, error) {
	def, ok := entities.LookupTask(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnknownTask, taskID)
	}
	if !def.ClaimableDirectly() {
		return nil, fmt.Errorf("%w: %s", entities.ErrTaskNotClaimable, taskID)
	}

	// Locking the profile serializes concurrent claims of the same task
	profile, err := s.profileRepo.GetByIDForUpdate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}

	claims, err := s.taskClaimRepo.GetClaims(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task claims: %w", err)
	}

	now := s.now()
	if lastClaim, ok := claims[def.ID]; ok && !utils.IsWindowExpired(&lastClaim, now, entities.TaskCooldown) {
		return nil, fmt.Errorf("%w: available again in %s", entities.ErrTaskOnCooldown,
			utils.WindowRemaining(&lastClaim, now, entities.TaskCooldown).Round(time.Minute))
	}

	if def.Type == entities.TaskTypeDailyBet && utils.IsWindowExpired(profile.LastBetAt, now, entities.TaskCooldown) {
		return nil, fmt.Errorf("%w: place a bet first", entities.ErrTaskRequirementNotMet)
	}

	if err := s.taskClaimRepo.UpsertClaim(ctx, profileID, def.ID, now); err != nil {
		return nil, fmt.Errorf("failed to store task claim: %w", err)
	}

	newPoints, err := s.profileRepo.AddPoints(ctx, profileID, def.Reward)
	if err != nil {
		return nil, fmt.Errorf("failed to credit task reward: %w", err)
	}

	relatedID := string(def.ID)
	history := &entities.PointsHistory{
		ProfileID:       profileID,
		PointsBefore:    profile.Points,
		PointsAfter:     newPoints,
		ChangeAmount:    def.Reward,
		TransactionType: entities.TransactionTypeTaskReward,
		Metadata: map[string]any{
			"taskId": def.ID,
		},
		RelatedID: &relatedID,
	}
	if err := utils.RecordPointsChange(ctx, s.historyRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.TaskClaimedEvent{
		ProfileID: profileID,
		TaskID:    def.ID,
		Reward:    def.Reward,
		ClaimedAt: now,
	}); err != nil {
		log.WithError(err).Error("Failed to publish task claimed event")
	}

	return &entities.TaskClaimResult{
		TaskID:    def.ID,
		Reward:    def.Reward,
		NewPoints: newPoints,
		ClaimedAt: now,
	}, nil
}
