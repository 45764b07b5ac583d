package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/servertask/internal/platform/logger"
	"github.com/phrazzld/servertask/internal/service"
)

// AttachmentHandler handles the upload authorization and image analysis
// endpoints.
type AttachmentHandler struct {
	attachments service.AttachmentService
	logger      *slog.Logger
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(attachments service.AttachmentService, logger *slog.Logger) *AttachmentHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AttachmentHandler")
	}

	return &AttachmentHandler{
		attachments: attachments,
		logger:      logger.With(slog.String("component", "attachment_handler")),
	}
}

// Presign handles POST /tasks/presign. The file name is used as the object
// key and the file type as the signed content type.
func (h *AttachmentHandler) Presign(r *http.Request) (int, interface{}, error) {
	var req PresignRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return 0, nil, err
	}

	upload, err := h.attachments.IssueUploadURL(r.Context(), req.FileName, req.FileType)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, PresignResponse{UploadURL: upload.URL}, nil
}

// ProcessImage handles POST /tasks/{taskId}/process-image.
func (h *AttachmentHandler) ProcessImage(r *http.Request) (int, interface{}, error) {
	userID, err := getUserID(r)
	if err != nil {
		return 0, nil, err
	}
	taskID, err := getPathParam(r, "taskId")
	if err != nil {
		return 0, nil, err
	}

	var req ProcessImageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return 0, nil, err
	}

	labels, err := h.attachments.AnalyzeAttachment(r.Context(), taskID, userID, req.ImageKey)
	if err != nil {
		return 0, nil, err
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("image processed",
		slog.String("task_id", taskID),
		slog.Int("label_count", len(labels)))
	return http.StatusOK, ProcessImageResponse{Labels: labels}, nil
}
