package mocks

import (
	"context"

	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. Each method calls its
// function field when set and otherwise delegates to Base, so tests can fail
// a single operation on top of a working store.
type MockTaskStore struct {
	Base store.TaskStore

	ListByUserFn     func(ctx context.Context, userID string) ([]*domain.Task, error)
	GetFn            func(ctx context.Context, taskID, userID string) (*domain.Task, error)
	CreateFn         func(ctx context.Context, task *domain.Task) error
	UpdateFn         func(ctx context.Context, taskID, userID string, fields domain.TaskFields, updatedAt string) (*domain.Task, error)
	SetImageLabelsFn func(ctx context.Context, taskID, userID string, labels []domain.Label, updatedAt string) error
	DeleteFn         func(ctx context.Context, taskID, userID string) error
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// ListByUser implements store.TaskStore
func (m *MockTaskStore) ListByUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	return m.Base.ListByUser(ctx, userID)
}

// Get implements store.TaskStore
func (m *MockTaskStore) Get(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, taskID, userID)
	}
	return m.Base.Get(ctx, taskID, userID)
}

// Create implements store.TaskStore
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	return m.Base.Create(ctx, task)
}

// Update implements store.TaskStore
func (m *MockTaskStore) Update(
	ctx context.Context,
	taskID, userID string,
	fields domain.TaskFields,
	updatedAt string,
) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, taskID, userID, fields, updatedAt)
	}
	return m.Base.Update(ctx, taskID, userID, fields, updatedAt)
}

// SetImageLabels implements store.TaskStore
func (m *MockTaskStore) SetImageLabels(
	ctx context.Context,
	taskID, userID string,
	labels []domain.Label,
	updatedAt string,
) error {
	if m.SetImageLabelsFn != nil {
		return m.SetImageLabelsFn(ctx, taskID, userID, labels, updatedAt)
	}
	return m.Base.SetImageLabels(ctx, taskID, userID, labels, updatedAt)
}

// Delete implements store.TaskStore
func (m *MockTaskStore) Delete(ctx context.Context, taskID, userID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, taskID, userID)
	}
	return m.Base.Delete(ctx, taskID, userID)
}
