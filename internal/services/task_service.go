package services

import (
	"context"
	"time"

	"crewdesk/internal/apperrors"
	"crewdesk/internal/models"
	"crewdesk/internal/repositories"
)

type TaskService interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	// AssignmentHistory lists the approval requests ever raised for a task,
	// newest first.
	AssignmentHistory(ctx context.Context, taskID int64) ([]models.ApprovalRequest, error)
}

type taskService struct {
	store repositories.Store
	now   func() time.Time
}

func NewTaskService(store repositories.Store, now func() time.Time) TaskService {
	if now == nil {
		now = time.Now
	}
	return &taskService{store: store, now: now}
}

func (s *taskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.Status == "" {
		task.Status = models.StatusDraft
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(task.Priority) {
		return nil, apperrors.New(apperrors.KindInvalidState, "unknown priority %q", task.Priority)
	}
	if task.EstimatedHours != nil && (*task.EstimatedHours <= 0 || *task.EstimatedHours > 1000) {
		return nil, apperrors.New(apperrors.KindInvalidState, "estimated hours out of range")
	}
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if err := s.store.Tasks().Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	return s.store.Tasks().FindByID(ctx, id)
}

func (s *taskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.store.Tasks().FindAll(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	if !models.ValidPriority(task.Priority) {
		return nil, apperrors.New(apperrors.KindInvalidState, "unknown priority %q", task.Priority)
	}
	task.UpdatedAt = s.now()
	if err := s.store.Tasks().Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) AssignmentHistory(ctx context.Context, taskID int64) ([]models.ApprovalRequest, error) {
	if _, err := s.store.Tasks().FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.Approvals().ListByTask(ctx, taskID)
}
