// Package memory provides an in-process implementation of store.TaskStore
// for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/store"
)

type taskKey struct {
	taskID string
	userID string
}

// TaskStore keeps tasks in a map guarded by a mutex. Records are copied on
// the way in and out so callers never share memory with the store.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[taskKey]*domain.Task
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[taskKey]*domain.Task)}
}

// Verify TaskStore implements store.TaskStore.
var _ store.TaskStore = (*TaskStore)(nil)

// ListByUser implements store.TaskStore.
func (s *TaskStore) ListByUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Task, 0)
	for key, t := range s.tasks {
		if key.userID == userID {
			out = append(out, clone(t))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out, nil
}

// Get implements store.TaskStore.
func (s *TaskStore) Get(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskKey{taskID, userID}]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return clone(t), nil
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", "invalid task", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := taskKey{task.TaskID, task.UserID}
	if _, exists := s.tasks[key]; exists {
		return store.ErrTaskExists
	}
	s.tasks[key] = clone(task)
	return nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(
	ctx context.Context,
	taskID, userID string,
	fields domain.TaskFields,
	updatedAt string,
) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskKey{taskID, userID}]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	t.Overwrite(fields, updatedAt)
	return clone(t), nil
}

// SetImageLabels implements store.TaskStore.
func (s *TaskStore) SetImageLabels(
	ctx context.Context,
	taskID, userID string,
	labels []domain.Label,
	updatedAt string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskKey{taskID, userID}]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.ImageLabels = append([]domain.Label{}, labels...)
	t.UpdatedAt = updatedAt
	return nil
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, taskID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, taskKey{taskID, userID})
	return nil
}

func clone(t *domain.Task) *domain.Task {
	c := *t
	if t.ImageLabels != nil {
		c.ImageLabels = append([]domain.Label{}, t.ImageLabels...)
	}
	return &c
}
