package staging

import "io"

// captureStore abstracts the storage mechanics for a capture area.
// Concurrency is managed by the caller (CaptureArea.mu), so stores
// do not need to be safe for concurrent use.
type captureStore interface {
	// Allocate returns a fresh path for fileID and prepares whatever the
	// path needs to be written by an outside process.
	Allocate(fileID, token string) (string, error)

	// Create creates or truncates the content at path.
	Create(path string) (io.WriteCloser, error)

	// Open returns a reader for the content at path. Missing content yields
	// an error wrapping fs.ErrNotExist.
	Open(path string) (io.ReadCloser, error)

	// Remove deletes the content at path. Missing content is not an error.
	Remove(path string) error

	// ContentSize returns total bytes of all stored content.
	ContentSize() (int64, error)
}
