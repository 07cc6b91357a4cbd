package ovc

import "io"

// CaptureArea hands out local paths where scanners drop the bytes of a
// file under inspection, and where restores stage bytes before write-back.
type CaptureArea interface {
	// Reserve allocates a fresh, not-yet-existing path for fileID.
	Reserve(fileID string) (string, error)

	// Open opens a path previously returned by Reserve.
	Open(path string) (io.ReadCloser, error)

	// Create creates the file at a reserved path for writing.
	Create(path string) (io.WriteCloser, error)

	// Release deletes whatever was written to path. Releasing a path that
	// was never written is not an error.
	Release(path string) error
}
