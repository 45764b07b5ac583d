package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrInvalidConfig is returned when the recognizer is constructed with
	// missing settings.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrInvalidResponse is returned when the model answer cannot be turned
	// into labels.
	ErrInvalidResponse = errors.New("invalid response from gemini")

	// ErrContentBlocked is returned when the model refuses to answer for
	// safety reasons.
	ErrContentBlocked = errors.New("content blocked by gemini safety filters")
)
