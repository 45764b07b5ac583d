// Package storetest holds the behavioural test suite every store.TaskStore
// implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

// NewTask builds a valid task for userID created at baseTime + offset.
func NewTask(t *testing.T, userID string, offset time.Duration) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(uuid.NewString(), userID, domain.TaskFields{
		Title:       "title " + offset.String(),
		Description: "description",
		DueDate:     "2025-05-01",
	}, baseTime.Add(offset))
	require.NoError(t, err)
	return task
}

// RunTaskStoreTests exercises the store.TaskStore contract against the store
// returned by newStore. newStore is called once per subtest and must return
// an empty store.
func RunTaskStoreTests(t *testing.T, newStore func(t *testing.T) store.TaskStore) {
	t.Run("create_then_get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := NewTask(t, "user-a", 0)

		require.NoError(t, s.Create(ctx, task))

		got, err := s.Get(ctx, task.TaskID, task.UserID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("create_duplicate_key_is_rejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := NewTask(t, "user-a", 0)
		require.NoError(t, s.Create(ctx, task))

		dup := *task
		dup.Title = "other"
		err := s.Create(ctx, &dup)
		assert.ErrorIs(t, err, store.ErrTaskExists)

		got, err := s.Get(ctx, task.TaskID, task.UserID)
		require.NoError(t, err)
		assert.Equal(t, task.Title, got.Title, "existing record must not be merged")
	})

	t.Run("same_task_id_different_user_is_distinct", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := NewTask(t, "user-a", 0)
		b := *a
		b.UserID = "user-b"

		require.NoError(t, s.Create(ctx, a))
		require.NoError(t, s.Create(ctx, &b))

		got, err := s.Get(ctx, a.TaskID, "user-b")
		require.NoError(t, err)
		assert.Equal(t, "user-b", got.UserID)
	})

	t.Run("get_missing_returns_not_found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "missing", "user-a")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("list_is_scoped_and_ordered", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		third := NewTask(t, "user-a", 3*time.Second)
		first := NewTask(t, "user-a", 1*time.Second)
		other := NewTask(t, "user-b", 2*time.Second)
		second := NewTask(t, "user-a", 2*time.Second)
		for _, task := range []*domain.Task{third, first, other, second} {
			require.NoError(t, s.Create(ctx, task))
		}

		got, err := s.ListByUser(ctx, "user-a")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, first.TaskID, got[0].TaskID)
		assert.Equal(t, second.TaskID, got[1].TaskID)
		assert.Equal(t, third.TaskID, got[2].TaskID)
		for _, task := range got {
			assert.Equal(t, "user-a", task.UserID)
		}
	})

	t.Run("list_empty_is_not_an_error", func(t *testing.T) {
		s := newStore(t)
		got, err := s.ListByUser(context.Background(), "nobody")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("update_overwrites_all_fields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := NewTask(t, "user-a", 0)
		require.NoError(t, s.Create(ctx, task))

		updatedAt := domain.FormatTimestamp(baseTime.Add(time.Minute))
		got, err := s.Update(ctx, task.TaskID, task.UserID, domain.TaskFields{
			Title:  "renamed",
			Status: "DONE",
		}, updatedAt)
		require.NoError(t, err)

		assert.Equal(t, "renamed", got.Title)
		assert.Equal(t, "DONE", got.Status)
		assert.Empty(t, got.Description)
		assert.Empty(t, got.DueDate)
		assert.Equal(t, updatedAt, got.UpdatedAt)
		assert.Equal(t, task.CreatedAt, got.CreatedAt)

		stored, err := s.Get(ctx, task.TaskID, task.UserID)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	})

	t.Run("update_missing_returns_not_found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Update(context.Background(), "missing", "user-a", domain.TaskFields{}, "x")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("set_image_labels_overwrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := NewTask(t, "user-a", 0)
		require.NoError(t, s.Create(ctx, task))

		first := []domain.Label{{Name: "Cat", Confidence: 90}, {Name: "Pet", Confidence: 80}}
		require.NoError(t, s.SetImageLabels(ctx, task.TaskID, task.UserID, first, "t1"))

		second := []domain.Label{{Name: "Dog", Confidence: 75.5}}
		require.NoError(t, s.SetImageLabels(ctx, task.TaskID, task.UserID, second, "t2"))

		got, err := s.Get(ctx, task.TaskID, task.UserID)
		require.NoError(t, err)
		assert.Equal(t, second, got.ImageLabels)
		assert.Equal(t, "t2", got.UpdatedAt)
	})

	t.Run("set_image_labels_missing_returns_not_found", func(t *testing.T) {
		s := newStore(t)
		err := s.SetImageLabels(context.Background(), "missing", "user-a", nil, "x")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("delete_is_idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		task := NewTask(t, "user-a", 0)
		require.NoError(t, s.Create(ctx, task))

		require.NoError(t, s.Delete(ctx, task.TaskID, task.UserID))
		require.NoError(t, s.Delete(ctx, task.TaskID, task.UserID))

		_, err := s.Get(ctx, task.TaskID, task.UserID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}
