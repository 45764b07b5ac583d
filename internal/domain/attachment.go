package domain

import "time"

// UploadURL is a time-limited authorization to upload one attachment object.
type UploadURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}
