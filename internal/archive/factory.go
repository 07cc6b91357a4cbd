package archive

import (
	"context"
	"fmt"
	"os"

	"ovc-go/internal/config"
	"ovc-go/internal/ovc"
)

// Environment variables holding static S3 credentials. They are read here
// rather than from the config file so secrets stay out of ovc.toml.
const (
	EnvS3AccessKeyID     = "OVC_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "OVC_S3_SECRET_ACCESS_KEY"
)

// NewArchiveFromConfig creates an Archive implementation based on the archive config type.
func NewArchiveFromConfig(ctx context.Context, cfg config.ArchiveConfig) (ovc.Archive, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryArchive("ovc"), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 archive requires s3_bucket to be set")
		}
		return NewS3Archive(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     os.Getenv(EnvS3AccessKeyID),
			SecretAccessKey: os.Getenv(EnvS3SecretAccessKey),
		})
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem archive requires fs_root to be set")
		}
		return NewFileSystemArchive(cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
