package ovc

import (
	"context"
	"io"
)

// Archive stores the byte copies captured for file versions.
// All operations stream so large files are never held in memory.
type Archive interface {
	// Put stores the bytes read from r under key and returns a location
	// string describing where they live. size is -1 when unknown.
	// Storing the same key twice overwrites the earlier copy.
	Put(ctx context.Context, key string, r io.Reader, size int64) (string, error)

	// Get writes the bytes stored under key to w. A missing key yields an
	// error wrapping ErrNotFound.
	Get(ctx context.Context, key string, w io.Writer) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// ValidateSetup verifies that the archive is reachable and writable.
	ValidateSetup(ctx context.Context) error
}

// ArchiveKey is the archive key of a version's bytes.
func ArchiveKey(fileID, versionID string) string {
	return fileID + "/" + versionID
}
