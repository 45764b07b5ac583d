package gemini

import "google.golang.org/genai"

// promptData represents the data passed to the prompt template
type promptData struct {
	MaxLabels     int
	MinConfidence float64
}

// ResponseSchema represents the expected structure of the Gemini answer
type ResponseSchema struct {
	// Labels is the list of objects, scenes and concepts seen in the image
	Labels []LabelSchema `json:"labels"`
}

// LabelSchema represents a single label in the API response
type LabelSchema struct {
	// Name is the label text, e.g. "Cat"
	Name string `json:"name"`

	// Confidence is the model's confidence in percent, 0 to 100
	Confidence float64 `json:"confidence"`
}

// labelResponseSchema describes ResponseSchema to the model so the answer is
// constrained to at most maxLabels labels with percent confidences.
func labelResponseSchema(maxLabels int) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"labels": {
				Type:     genai.TypeArray,
				MaxItems: genai.Ptr(int64(maxLabels)),
				Items:    &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":       {Type: genai.TypeString},
						"confidence": {Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
					},
					Required:         []string{"name", "confidence"},
					PropertyOrdering: []string{"name", "confidence"},
				},
			},
		},
		Required: []string{"labels"},
	}
}
