package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ovc-go/internal/ovc"
)

// FileSystemArchive is a filesystem-based implementation of the Archive interface.
// Objects are stored as plain files under the root:
//
//	<root>/
//	  objects/
//	    <monitoredFileID>/
//	      <versionID>
type FileSystemArchive struct {
	root       string
	objectsDir string
}

// NewFileSystemArchive creates a new filesystem archive rooted at the given path.
func NewFileSystemArchive(root string) (*FileSystemArchive, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving archive root: %w", err)
	}
	objectsDir := filepath.Join(root, "objects")

	if err := os.MkdirAll(objectsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create objects directory: %w", err)
	}

	return &FileSystemArchive{
		root:       root,
		objectsDir: objectsDir,
	}, nil
}

func (a *FileSystemArchive) objectPath(key string) string {
	return filepath.Join(a.objectsDir, filepath.FromSlash(key))
}

// Put stores the bytes read from r under key and returns the object's absolute path.
// Writes are atomic: readers never observe a partial object.
func (a *FileSystemArchive) Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	destPath := a.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := a.writeFile(ctx, destPath, r, size); err != nil {
		return "", err
	}
	return destPath, nil
}

// Get writes the object stored under key to w.
func (a *FileSystemArchive) Get(ctx context.Context, key string, w io.Writer) error {
	if err := validateKey(key); err != nil {
		return err
	}
	f, err := os.Open(a.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("archive object %s: %w", key, ovc.ErrNotFound)
		}
		return fmt.Errorf("failed to open object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	return nil
}

// Delete removes the object stored under key.
func (a *FileSystemArchive) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(a.objectPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the archive directories are accessible and writable.
func (a *FileSystemArchive) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(a.root)
	if err != nil {
		return fmt.Errorf("archive root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive root is not a directory: %s", a.root)
	}

	probe, err := os.CreateTemp(a.objectsDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("archive not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
// expectedSize is checked unless it is negative.
func (a *FileSystemArchive) writeFile(ctx context.Context, destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if expectedSize >= 0 && written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Compile-time check that FileSystemArchive implements ovc.Archive interface
var _ ovc.Archive = (*FileSystemArchive)(nil)
