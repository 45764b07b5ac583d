package store

import (
	"context"

	"github.com/phrazzld/servertask/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// Tasks are addressed by the (taskID, userID) pair.
type TaskStore interface {
	// ListByUser returns every task owned by userID, ordered by ascending
	// CreatedAt. Returns an empty slice, not an error, when there are none.
	ListByUser(ctx context.Context, userID string) ([]*domain.Task, error)

	// Get retrieves a single task.
	// Returns ErrTaskNotFound if the task does not exist.
	Get(ctx context.Context, taskID, userID string) (*domain.Task, error)

	// Create stores a new task.
	// Returns ErrTaskExists if a task with the same key is already stored.
	Create(ctx context.Context, task *domain.Task) error

	// Update overwrites the caller-controlled fields and UpdatedAt of an
	// existing task and returns the stored record.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, taskID, userID string, fields domain.TaskFields, updatedAt string) (*domain.Task, error)

	// SetImageLabels replaces the task's labels and stamps UpdatedAt.
	// Returns ErrTaskNotFound if the task does not exist.
	SetImageLabels(ctx context.Context, taskID, userID string, labels []domain.Label, updatedAt string) error

	// Delete removes the task. Deleting a missing task is not an error.
	Delete(ctx context.Context, taskID, userID string) error
}
