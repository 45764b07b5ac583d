package domain

import (
	"time"
)

// TaskStatusPending is the status every task starts with. Other status values
// are caller supplied and accepted as-is; no transitions are enforced.
const TaskStatusPending = "PENDING"

// TimestampLayout renders UTC timestamps with a fixed width so that the
// string form sorts in chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Task is a unit of work owned by a user, optionally annotated with the
// labels recognized on its image attachment.
type Task struct {
	TaskID      string  `json:"taskId"`
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     string  `json:"dueDate,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	ImageLabels []Label `json:"imageLabels,omitempty"`
}

// TaskFields are the caller-controlled fields of a task.
type TaskFields struct {
	Title       string
	Description string
	DueDate     string
	Status      string
}

// NewTask creates a Task with the given identifier and owner. The status is
// always TaskStatusPending and both timestamps are set to now.
func NewTask(taskID, userID string, fields TaskFields, now time.Time) (*Task, error) {
	stamp := FormatTimestamp(now)
	task := &Task{
		TaskID:      taskID,
		UserID:      userID,
		Title:       fields.Title,
		Description: fields.Description,
		DueDate:     fields.DueDate,
		Status:      TaskStatusPending,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the key fields of the task. Title, description, due date
// and status are free text and are not constrained.
func (t *Task) Validate() error {
	if t.TaskID == "" {
		return NewValidationError("taskId", "cannot be empty", ErrInvalidID)
	}
	if t.UserID == "" {
		return NewValidationError("userId", "cannot be empty", ErrInvalidID)
	}
	return nil
}

// Overwrite replaces every caller-controlled field with the given values and
// stamps UpdatedAt, a timestamp in TimestampLayout. Fields left empty in f
// become empty on the task; callers must send the complete record.
func (t *Task) Overwrite(f TaskFields, updatedAt string) {
	t.Title = f.Title
	t.Description = f.Description
	t.DueDate = f.DueDate
	t.Status = f.Status
	t.UpdatedAt = updatedAt
}
