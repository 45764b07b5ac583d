package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/platform/logger"
	"github.com/phrazzld/servertask/internal/store"
)

const taskColumns = `task_id, user_id, title, description, due_date, status, created_at, updated_at, image_labels`

// PostgresTaskStore implements store.TaskStore using PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore. db may be a
// connection pool or a transaction.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "postgres_task_store")),
	}
}

// Verify PostgresTaskStore implements store.TaskStore.
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t      domain.Task
		labels []byte
	)
	if err := row.Scan(
		&t.TaskID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
		&labels,
	); err != nil {
		return nil, err
	}

	if labels != nil {
		if err := json.Unmarshal(labels, &t.ImageLabels); err != nil {
			return nil, fmt.Errorf("failed to decode image labels: %w", err)
		}
		if t.ImageLabels == nil {
			t.ImageLabels = []domain.Label{}
		}
	}
	return &t, nil
}

func encodeLabels(labels []domain.Label) (any, error) {
	if labels == nil {
		return nil, nil
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image labels: %w", err)
	}
	return string(data), nil
}

// ListByUser implements store.TaskStore.
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at ASC, task_id ASC
	`, userID)
	if err != nil {
		log.Error("failed to query tasks", "user_id", userID, "error", err)
		return nil, store.NewStoreError("task", "list", "query failed", MapError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", "error", cerr)
		}
	}()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "list", "failed to scan row", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "row iteration failed", MapError(err))
	}

	return tasks, nil
}

// Get implements store.TaskStore.
func (s *PostgresTaskStore) Get(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE task_id = $1 AND user_id = $2
	`, taskID, userID)

	t, err := scanTask(row)
	if err != nil {
		mapped := MapError(err)
		if store.IsNotFoundError(mapped) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			"task_id", taskID, "user_id", userID, "error", err)
		return nil, store.NewStoreError("task", "get", "select failed", mapped)
	}
	return t, nil
}

// Create implements store.TaskStore. The primary key rejects a second task
// with the same (task_id, user_id).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", "invalid task", err)
	}

	labels, err := encodeLabels(task.ImageLabels)
	if err != nil {
		return store.NewStoreError("task", "create", "invalid labels", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		task.TaskID,
		task.UserID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
		labels,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrTaskExists
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert task",
			"task_id", task.TaskID, "user_id", task.UserID, "error", err)
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}
	return nil
}

// Update implements store.TaskStore.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	taskID, userID string,
	fields domain.TaskFields,
	updatedAt string,
) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, due_date = $5, status = $6, updated_at = $7
		WHERE task_id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		taskID,
		userID,
		fields.Title,
		fields.Description,
		fields.DueDate,
		fields.Status,
		updatedAt,
	)

	t, err := scanTask(row)
	if err != nil {
		mapped := MapError(err)
		if store.IsNotFoundError(mapped) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			"task_id", taskID, "user_id", userID, "error", err)
		return nil, store.NewStoreError("task", "update", "update failed", mapped)
	}
	return t, nil
}

// SetImageLabels implements store.TaskStore.
func (s *PostgresTaskStore) SetImageLabels(
	ctx context.Context,
	taskID, userID string,
	labels []domain.Label,
	updatedAt string,
) error {
	if labels == nil {
		labels = []domain.Label{}
	}
	encoded, err := encodeLabels(labels)
	if err != nil {
		return store.NewStoreError("task", "set_image_labels", "invalid labels", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET image_labels = $3, updated_at = $4
		WHERE task_id = $1 AND user_id = $2
	`, taskID, userID, encoded, updatedAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to set image labels",
			"task_id", taskID, "user_id", userID, "error", err)
		return store.NewStoreError("task", "set_image_labels", "update failed", MapError(err))
	}

	return CheckRowsAffected(result)
}

// Delete implements store.TaskStore.
func (s *PostgresTaskStore) Delete(ctx context.Context, taskID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE task_id = $1 AND user_id = $2
	`, taskID, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			"task_id", taskID, "user_id", userID, "error", err)
		return store.NewStoreError("task", "delete", "delete failed", MapError(err))
	}
	return nil
}
