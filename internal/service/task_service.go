package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/platform/logger"
	"github.com/phrazzld/servertask/internal/store"
)

// TaskService provides task-related operations. Every operation is scoped to
// the owner passed in userID.
type TaskService interface {
	// ListTasks returns the owner's tasks in creation order.
	ListTasks(ctx context.Context, userID string) ([]*domain.Task, error)

	// GetTask returns one task or ErrTaskNotFound.
	GetTask(ctx context.Context, taskID, userID string) (*domain.Task, error)

	// CreateTask stores a new task with a fresh identifier and the PENDING
	// status. fields.Status is ignored.
	CreateTask(ctx context.Context, userID string, fields domain.TaskFields) (*domain.Task, error)

	// UpdateTask overwrites every caller-controlled field of an existing task.
	UpdateTask(ctx context.Context, taskID, userID string, fields domain.TaskFields) (*domain.Task, error)

	// DeleteTask removes a task. Deleting a missing task succeeds.
	DeleteTask(ctx context.Context, taskID, userID string) error
}

// TaskServiceOption customizes a TaskService.
type TaskServiceOption func(*taskServiceImpl)

// WithIDGenerator replaces the task identifier source.
func WithIDGenerator(fn func() string) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.newID = fn
	}
}

// WithClock replaces the time source used for timestamps.
func WithClock(fn func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.now = fn
	}
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	tasks  store.TaskStore
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// Ensure taskServiceImpl implements TaskService
var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a TaskService backed by tasks.
func NewTaskService(tasks store.TaskStore, logger *slog.Logger, opts ...TaskServiceOption) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &taskServiceImpl{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_service")),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, userID string) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError("task", "list", err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, taskID, userID)
	if err != nil {
		return nil, NewServiceError("task", "get", err)
	}
	return task, nil
}

func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	userID string,
	fields domain.TaskFields,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(s.newID(), userID, fields, s.now())
	if err != nil {
		return nil, NewServiceError("task", "create", err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Warn("failed to create task",
			"task_id", task.TaskID,
			"user_id", userID,
			"error", err)
		return nil, NewServiceError("task", "create", err)
	}

	log.Info("task created", "task_id", task.TaskID, "user_id", userID)
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID, userID string,
	fields domain.TaskFields,
) (*domain.Task, error) {
	if taskID == "" {
		return nil, domain.NewValidationError("taskId", "cannot be empty", domain.ErrInvalidID)
	}

	task, err := s.tasks.Update(ctx, taskID, userID, fields, domain.FormatTimestamp(s.now()))
	if err != nil {
		return nil, NewServiceError("task", "update", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task updated",
		"task_id", taskID,
		"user_id", userID)
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID, userID string) error {
	if err := s.tasks.Delete(ctx, taskID, userID); err != nil {
		return NewServiceError("task", "delete", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted",
		"task_id", taskID,
		"user_id", userID)
	return nil
}
