package staging

import (
	"fmt"

	"ovc-go/internal/config"
)

// DefaultMaxSize is the capture area size used when the config leaves it unset (1GB).
const DefaultMaxSize int64 = config.DefaultStagingMaxSize

// NewCaptureAreaFromConfig creates a CaptureArea implementation based on the config type.
func NewCaptureAreaFromConfig(cfg config.StagingConfig) (*CaptureArea, error) {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	switch cfg.Type {
	case "memory":
		return NewMemoryCaptureArea(maxSize), nil
	case "filesystem", "":
		if cfg.StagingDir == "" {
			return nil, fmt.Errorf("filesystem capture area requires staging_dir to be set")
		}
		return NewFileSystemCaptureArea(cfg.StagingDir, maxSize)
	default:
		return nil, fmt.Errorf("unknown staging area type: %s", cfg.Type)
	}
}
