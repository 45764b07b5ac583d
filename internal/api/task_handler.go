package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/platform/logger"
	"github.com/phrazzld/servertask/internal/service"
)

// TaskHandler handles the task CRUD endpoints.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(r *http.Request) (int, interface{}, error) {
	userID, err := getUserID(r)
	if err != nil {
		return 0, nil, err
	}

	tasks, err := h.tasks.ListTasks(r.Context(), userID)
	if err != nil {
		return 0, nil, err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("tasks listed",
		slog.String("user_id", userID),
		slog.Int("count", len(tasks)))
	return http.StatusOK, tasks, nil
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(r *http.Request) (int, interface{}, error) {
	userID, err := getUserID(r)
	if err != nil {
		return 0, nil, err
	}

	var req CreateTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return 0, nil, err
	}

	task, err := h.tasks.CreateTask(r.Context(), userID, req.Fields())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, task, nil
}

// GetTask handles GET /tasks/{taskId}. A missing task answers 200 with an
// empty object.
func (h *TaskHandler) GetTask(r *http.Request) (int, interface{}, error) {
	userID, err := getUserID(r)
	if err != nil {
		return 0, nil, err
	}
	taskID, err := getPathParam(r, "taskId")
	if err != nil {
		return 0, nil, err
	}

	task, err := h.tasks.GetTask(r.Context(), taskID, userID)
	if errors.Is(err, service.ErrTaskNotFound) {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("task not found",
			slog.String("task_id", taskID),
			slog.String("user_id", userID))
		return http.StatusOK, empty, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, task, nil
}

// UpdateTask handles PUT /tasks/{taskId}.
func (h *TaskHandler) UpdateTask(r *http.Request) (int, interface{}, error) {
	userID, err := getUserID(r)
	if err != nil {
		return 0, nil, err
	}
	taskID, err := getPathParam(r, "taskId")
	if err != nil {
		return 0, nil, err
	}

	var req UpdateTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return 0, nil, err
	}

	task, err := h.tasks.UpdateTask(r.Context(), taskID, userID, req.Fields())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, task, nil
}

// DeleteTask handles DELETE /tasks/{taskId}.
func (h *TaskHandler) DeleteTask(r *http.Request) (int, interface{}, error) {
	userID, err := getUserID(r)
	if err != nil {
		return 0, nil, err
	}
	taskID, err := getPathParam(r, "taskId")
	if err != nil {
		return 0, nil, err
	}

	if err := h.tasks.DeleteTask(r.Context(), taskID, userID); err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, empty, nil
}
