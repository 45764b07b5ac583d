package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/servertask/internal/domain"
)

// MockURLIssuer implements service.URLIssuer for testing
type MockURLIssuer struct {
	// IssueUploadURLFn allows test cases to mock the IssueUploadURL behavior
	IssueUploadURLFn func(ctx context.Context, objectKey, contentType string) (*domain.UploadURL, error)

	// Err is returned when IssueUploadURLFn is nil and Err is set
	Err error

	// LastObjectKey and LastContentType hold the most recent arguments
	LastObjectKey   string
	LastContentType string
}

// IssueUploadURL implements the service.URLIssuer interface. Without a
// custom function it returns a URL naming the object and content type.
func (m *MockURLIssuer) IssueUploadURL(
	ctx context.Context,
	objectKey, contentType string,
) (*domain.UploadURL, error) {
	m.LastObjectKey = objectKey
	m.LastContentType = contentType

	if m.IssueUploadURLFn != nil {
		return m.IssueUploadURLFn(ctx, objectKey, contentType)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.UploadURL{
		URL:       "https://attachments.example.com/" + objectKey + "?X-Amz-Expires=60",
		Method:    "PUT",
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil
}
