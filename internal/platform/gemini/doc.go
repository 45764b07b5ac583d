// Package gemini provides an implementation of image label recognition that
// uses Google's Gemini API.
//
// This package is an infrastructure adapter: it reads the attachment bytes
// from object storage, sends them inline to a Gemini model together with a
// prompt asking for labels in a fixed JSON shape, and converts the answer
// into domain labels.
//
// Key components:
//
// 1. GeminiRecognizer:
//   - Implements label detection for attachment object keys
//   - Handles communication with the Gemini API
//   - Converts structured responses into domain.Label values
//
// 2. Prompt Management:
//   - Renders the prompt template with the requested label cap and floor
//
// 3. Error Handling:
//   - Objects that are missing or are not images become
//     domain.ErrAttachmentUnavailable
//   - Blocked or malformed model output is reported as an upstream failure
//
// Requests are made once; there is no retry policy.
package gemini
