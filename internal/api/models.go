package api

import "github.com/phrazzld/servertask/internal/domain"

// CreateTaskRequest is the payload of POST /tasks. A status in the body is
// ignored; new tasks always start as PENDING.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

// Fields converts the request to the caller-controlled task fields.
func (r CreateTaskRequest) Fields() domain.TaskFields {
	return domain.TaskFields{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
	}
}

// UpdateTaskRequest is the payload of PUT /tasks/{taskId}. Every field is
// written; omitted fields become empty.
type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
}

// Fields converts the request to the caller-controlled task fields.
func (r UpdateTaskRequest) Fields() domain.TaskFields {
	return domain.TaskFields{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Status:      r.Status,
	}
}

// PresignRequest is the payload of POST /tasks/presign.
type PresignRequest struct {
	FileName string `json:"fileName" validate:"required"`
	FileType string `json:"fileType" validate:"required"`
}

// PresignResponse carries the upload authorization.
type PresignResponse struct {
	UploadURL string `json:"uploadURL"`
}

// ProcessImageRequest is the payload of POST /tasks/{taskId}/process-image.
type ProcessImageRequest struct {
	ImageKey string `json:"imageKey" validate:"required"`
}

// ProcessImageResponse carries the labels stored on the task.
type ProcessImageResponse struct {
	Labels []domain.Label `json:"labels"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
