package testutil

import (
	"ovc-go/internal/staging"
)

const (
	// DefaultCaptureMaxSize is the default max size for test capture areas (10MB).
	DefaultCaptureMaxSize = 10 * 1024 * 1024
)

// NewTestCaptureArea creates a new in-memory capture area for testing.
func NewTestCaptureArea() *staging.CaptureArea {
	return staging.NewMemoryCaptureArea(DefaultCaptureMaxSize)
}

// NewTestCaptureAreaWithSize creates a new in-memory capture area with a custom max size.
func NewTestCaptureAreaWithSize(maxSize int64) *staging.CaptureArea {
	return staging.NewMemoryCaptureArea(maxSize)
}
