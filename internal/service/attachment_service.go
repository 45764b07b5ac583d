package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/platform/logger"
	"github.com/phrazzld/servertask/internal/store"
)

// URLIssuer issues upload authorizations for attachment objects.
type URLIssuer interface {
	IssueUploadURL(ctx context.Context, objectKey, contentType string) (*domain.UploadURL, error)
}

// Recognizer returns raw labels for an attachment object. Implementations
// report missing or unreadable objects as domain.ErrAttachmentUnavailable.
type Recognizer interface {
	DetectLabels(ctx context.Context, objectKey string, maxLabels int, minConfidence float64) ([]domain.Label, error)
}

// AnalysisOptions bounds the labels stored on a task.
type AnalysisOptions struct {
	// MaxLabels is the most labels kept per analysis.
	MaxLabels int
	// MinConfidence is the lowest confidence, in percent, that is kept.
	MinConfidence float64
}

// AttachmentService provides the two halves of the attachment workflow.
type AttachmentService interface {
	// IssueUploadURL authorizes an upload of fileName with content type fileType.
	IssueUploadURL(ctx context.Context, fileName, fileType string) (*domain.UploadURL, error)

	// AnalyzeAttachment recognizes labels on objectKey and stores them on
	// the task, replacing earlier labels. Returns the stored labels.
	AnalyzeAttachment(ctx context.Context, taskID, userID, objectKey string) ([]domain.Label, error)
}

// attachmentServiceImpl implements the AttachmentService interface
type attachmentServiceImpl struct {
	tasks      store.TaskStore
	issuer     URLIssuer
	recognizer Recognizer
	opts       AnalysisOptions
	logger     *slog.Logger
	now        func() time.Time
}

// Ensure attachmentServiceImpl implements AttachmentService
var _ AttachmentService = (*attachmentServiceImpl)(nil)

// NewAttachmentService creates an AttachmentService.
func NewAttachmentService(
	tasks store.TaskStore,
	issuer URLIssuer,
	recognizer Recognizer,
	opts AnalysisOptions,
	logger *slog.Logger,
) AttachmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &attachmentServiceImpl{
		tasks:      tasks,
		issuer:     issuer,
		recognizer: recognizer,
		opts:       opts,
		logger:     logger.With(slog.String("component", "attachment_service")),
		now:        time.Now,
	}
}

func (s *attachmentServiceImpl) IssueUploadURL(
	ctx context.Context,
	fileName, fileType string,
) (*domain.UploadURL, error) {
	if fileName == "" {
		return nil, domain.NewValidationError("fileName", "cannot be empty", domain.ErrValidation)
	}
	if fileType == "" {
		return nil, domain.NewValidationError("fileType", "cannot be empty", domain.ErrValidation)
	}

	upload, err := s.issuer.IssueUploadURL(ctx, fileName, fileType)
	if err != nil {
		return nil, NewServiceError("attachment", "issue_upload_url", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("upload url issued",
		"object_key", fileName,
		"content_type", fileType,
		"expires_at", upload.ExpiresAt)
	return upload, nil
}

func (s *attachmentServiceImpl) AnalyzeAttachment(
	ctx context.Context,
	taskID, userID, objectKey string,
) ([]domain.Label, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if objectKey == "" {
		return nil, domain.NewValidationError("imageKey", "cannot be empty", domain.ErrValidation)
	}

	// The task must exist before recognition is paid for.
	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, NewServiceError("attachment", "analyze", err)
	}

	raw, err := s.recognizer.DetectLabels(ctx, objectKey, s.opts.MaxLabels, s.opts.MinConfidence)
	if err != nil {
		log.Warn("label recognition failed",
			"task_id", taskID,
			"object_key", objectKey,
			"error", err)
		return nil, NewServiceError("attachment", "analyze", err)
	}

	labels := domain.NormalizeLabels(raw, s.opts.MaxLabels, s.opts.MinConfidence)

	err = s.tasks.SetImageLabels(ctx, taskID, userID, labels, domain.FormatTimestamp(s.now()))
	if err != nil {
		return nil, NewServiceError("attachment", "analyze", err)
	}

	log.Info("attachment analyzed",
		"task_id", taskID,
		"user_id", userID,
		"object_key", objectKey,
		"label_count", len(labels))
	return labels, nil
}
