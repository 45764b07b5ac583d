package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"text/template"

	"github.com/phrazzld/servertask/internal/config"
	"github.com/phrazzld/servertask/internal/domain"
	"google.golang.org/genai"
)

const promptText = `You are an image labelling service.
List the objects, scenes and concepts visible in the attached image.
Return at most {{.MaxLabels}} labels, each with a confidence between 0 and 100,
and leave out any label with confidence below {{.MinConfidence}}.
Answer only with JSON of the form {"labels":[{"name":"Cat","confidence":97.5}]}.`

// ContentGenerator is the subset of the genai Models service used by
// GeminiRecognizer.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// ObjectReader loads attachment bytes and their content type.
type ObjectReader interface {
	ReadObject(ctx context.Context, objectKey string) ([]byte, string, error)
}

// GeminiRecognizer detects image labels by asking a Gemini model about the
// attachment bytes.
type GeminiRecognizer struct {
	// logger is used for structured logging
	logger *slog.Logger

	// generator performs the GenerateContent calls
	generator ContentGenerator

	// objects supplies the image bytes
	objects ObjectReader

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// model is the name of the Gemini model to use
	model string
}

// NewGeminiRecognizer creates a GeminiRecognizer backed by the Gemini API.
//
// Parameters:
//   - ctx: Context for client construction
//   - logger: A structured logger for operation logging
//   - cfg: Recognition configuration holding the API key and model name
//   - objects: Source of the attachment bytes
//
// Returns:
//   - A properly initialized GeminiRecognizer or an error if initialization fails
func NewGeminiRecognizer(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.RecognitionConfig,
	objects ObjectReader,
) (*GeminiRecognizer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return newRecognizer(logger, client.Models, objects, cfg.GeminiModel)
}

func newRecognizer(
	logger *slog.Logger,
	generator ContentGenerator,
	objects ObjectReader,
	model string,
) (*GeminiRecognizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}
	if objects == nil {
		return nil, fmt.Errorf("%w: object reader cannot be nil", ErrInvalidConfig)
	}

	promptTemplate, err := template.New("labels").Parse(promptText)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	return &GeminiRecognizer{
		logger:         logger.With(slog.String("component", "gemini_recognizer")),
		generator:      generator,
		objects:        objects,
		promptTemplate: promptTemplate,
		model:          model,
	}, nil
}

// DetectLabels reads objectKey and asks the model for labels on it.
//
// The model is asked to respect maxLabels and minConfidence; callers still
// enforce both on the result.
//
// Returns:
//   - The labels in the order the model produced them
//   - domain.ErrAttachmentUnavailable when the object is missing or not an image
//   - ErrContentBlocked or ErrInvalidResponse for unusable model output
func (g *GeminiRecognizer) DetectLabels(
	ctx context.Context,
	objectKey string,
	maxLabels int,
	minConfidence float64,
) ([]domain.Label, error) {
	data, contentType, err := g.objects.ReadObject(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	mimeType := imageMIMEType(data, contentType)
	if mimeType == "" {
		return nil, fmt.Errorf("%w: object %q is not an image", domain.ErrAttachmentUnavailable, objectKey)
	}

	prompt, err := g.createPrompt(maxLabels, minConfidence)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "Making Gemini API call",
		"model", g.model,
		"object_key", objectKey,
		"mime_type", mimeType,
		"image_bytes", len(data))

	resp, err := g.generator.GenerateContent(ctx, g.model, []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   labelResponseSchema(maxLabels),
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}

	parsed, err := parseResponse(resp)
	if err != nil {
		g.logger.WarnContext(ctx, "Unusable Gemini response", "error", err)
		return nil, err
	}

	labels := make([]domain.Label, 0, len(parsed.Labels))
	for _, l := range parsed.Labels {
		if strings.TrimSpace(l.Name) == "" {
			continue
		}
		labels = append(labels, domain.Label{Name: l.Name, Confidence: l.Confidence})
	}

	g.logger.InfoContext(ctx, "Gemini API call successful", "label_count", len(labels))
	return labels, nil
}

// createPrompt renders the prompt template for the given cap and floor.
func (g *GeminiRecognizer) createPrompt(maxLabels int, minConfidence float64) (string, error) {
	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{
		MaxLabels:     maxLabels,
		MinConfidence: minConfidence,
	}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// parseResponse extracts the JSON answer from the first candidate.
func parseResponse(resp *genai.GenerateContentResponse) (*ResponseSchema, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, ErrContentBlocked
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(stripCodeFence(text.String())), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", ErrInvalidResponse, err)
	}
	return &parsed, nil
}

// stripCodeFence removes a surrounding ```json fence some models add even
// when asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// imageMIMEType returns the image MIME type of data, preferring the stored
// content type, or "" when data is not an image.
func imageMIMEType(data []byte, contentType string) string {
	if strings.HasPrefix(contentType, "image/") {
		return contentType
	}
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}
