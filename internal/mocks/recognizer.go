package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/servertask/internal/domain"
)

// DetectLabelsCall records the arguments of one DetectLabels call.
type DetectLabelsCall struct {
	ObjectKey     string
	MaxLabels     int
	MinConfidence float64
}

// MockRecognizer implements service.Recognizer for testing
type MockRecognizer struct {
	// DetectLabelsFn allows test cases to mock the DetectLabels behavior
	DetectLabelsFn func(ctx context.Context, objectKey string, maxLabels int, minConfidence float64) ([]domain.Label, error)

	// Default response values
	Labels []domain.Label
	Err    error

	mu    sync.Mutex
	calls []DetectLabelsCall
}

// DetectLabels implements the service.Recognizer interface
func (m *MockRecognizer) DetectLabels(
	ctx context.Context,
	objectKey string,
	maxLabels int,
	minConfidence float64,
) ([]domain.Label, error) {
	m.mu.Lock()
	m.calls = append(m.calls, DetectLabelsCall{
		ObjectKey:     objectKey,
		MaxLabels:     maxLabels,
		MinConfidence: minConfidence,
	})
	m.mu.Unlock()

	if m.DetectLabelsFn != nil {
		return m.DetectLabelsFn(ctx, objectKey, maxLabels, minConfidence)
	}
	return m.Labels, m.Err
}

// Calls returns the recorded DetectLabels calls.
func (m *MockRecognizer) Calls() []DetectLabelsCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DetectLabelsCall(nil), m.calls...)
}
