package application

import (
	"context"
	"fmt"
	"time"

	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
	"tonflip/domain/services"
)

// TaskHandlerImpl implements the TaskHandler interface
type TaskHandlerImpl struct {
	uowFactory UnitOfWorkFactory
	clock      interfaces.Clock
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(uowFactory UnitOfWorkFactory) *TaskHandlerImpl {
	return &TaskHandlerImpl{uowFactory: uowFactory, clock: time.Now}
}

func (h *TaskHandlerImpl) taskService(uow UnitOfWork) interfaces.TaskService {
	return services.NewTaskService(
		uow.ProfileRepository(),
		uow.TaskClaimRepository(),
		uow.PointsHistoryRepository(),
		uow.EventBus(),
		h.clock,
	)
}

// ListTasks builds the caller's task board. An expired purchase window is
// reset while reading, so the transaction is committed.
func (h *TaskHandlerImpl) ListTasks(ctx context.Context, profileID string) ([]*entities.TaskStatus, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tasks, err := h.taskService(uow).ListTasks(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return tasks, nil
}

// ClaimTask credits a task reward
func (h *TaskHandlerImpl) ClaimTask(ctx context.Context, profileID, taskID string) (*entities.TaskClaimResult, error) {
	if _, ok := entities.LookupTask(entities.TaskID(taskID)); !ok {
		return nil, fmt.Errorf("%w: %q", entities.ErrUnknownTask, taskID)
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := h.taskService(uow).ClaimTask(ctx, profileID, entities.TaskID(taskID))
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}
