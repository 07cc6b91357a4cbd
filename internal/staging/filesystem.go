package staging

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// fileSystemStore is the filesystem-backed captureStore. Paths are real
// files so external scanner processes can write to them directly.
//
// Directory structure:
//
//	<staging_dir>/
//	  files/
//	    <monitoredFileID>/
//	      <token>    (captured or staged content)
type fileSystemStore struct {
	filesDir string
}

// NewFileSystemCaptureArea creates a new filesystem-based capture area.
// maxSize is the maximum total size in bytes; must be positive.
func NewFileSystemCaptureArea(stagingDir string, maxSize int64) (*CaptureArea, error) {
	stagingDir, err := filepath.Abs(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("resolving staging directory: %w", err)
	}
	filesDir := filepath.Join(stagingDir, "files")

	if err := os.MkdirAll(filesDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	return newCaptureArea(&fileSystemStore{filesDir: filesDir}, maxSize), nil
}

func (s *fileSystemStore) Allocate(fileID, token string) (string, error) {
	dir := filepath.Join(s.filesDir, fileID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, token), nil
}

func (s *fileSystemStore) Create(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}

func (s *fileSystemStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

func (s *fileSystemStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	// Drop the per-file directory once empty; failure means it is still in use.
	os.Remove(filepath.Dir(path))
	return nil
}

func (s *fileSystemStore) ContentSize() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.filesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measuring staging directory: %w", err)
	}
	return total, nil
}
