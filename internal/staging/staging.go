// Package staging provides the local capture area where scanners drop the
// bytes of a file under inspection and where restores stage bytes before
// write-back.
package staging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ovc-go/internal/ovc"
)

// ErrCaptureAreaFull is returned when the area already holds MaxSize bytes.
var ErrCaptureAreaFull = errors.New("capture area full")

// CaptureArea implements ovc.CaptureArea using a pluggable captureStore
// for the storage mechanics. Size accounting and reservations live here.
type CaptureArea struct {
	store    captureStore
	maxSize  int64
	reserved map[string]struct{}
	mu       sync.Mutex
}

var _ ovc.CaptureArea = (*CaptureArea)(nil)

func newCaptureArea(store captureStore, maxSize int64) *CaptureArea {
	return &CaptureArea{
		store:    store,
		maxSize:  maxSize,
		reserved: make(map[string]struct{}),
	}
}

// Reserve allocates a fresh path for fileID. It fails when the area is full.
func (a *CaptureArea) Reserve(fileID string) (string, error) {
	if fileID == "" || strings.ContainsAny(fileID, `/\`) || fileID == "." || fileID == ".." {
		return "", fmt.Errorf("invalid file id for capture: %q", fileID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	used, err := a.store.ContentSize()
	if err != nil {
		return "", fmt.Errorf("getting current size: %w", err)
	}
	if used >= a.maxSize {
		return "", fmt.Errorf("%w: %d of %d bytes in use", ErrCaptureAreaFull, used, a.maxSize)
	}

	path, err := a.store.Allocate(fileID, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("allocating capture path: %w", err)
	}
	a.reserved[path] = struct{}{}
	return path, nil
}

// Open opens a reserved path for reading.
func (a *CaptureArea) Open(path string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.reserved[path]; !ok {
		return nil, fmt.Errorf("path was not reserved: %s", path)
	}
	return a.store.Open(path)
}

// Create creates the content at a reserved path. Writes beyond the area's
// remaining space fail with ErrCaptureAreaFull.
func (a *CaptureArea) Create(path string) (io.WriteCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.reserved[path]; !ok {
		return nil, fmt.Errorf("path was not reserved: %s", path)
	}
	used, err := a.store.ContentSize()
	if err != nil {
		return nil, fmt.Errorf("getting current size: %w", err)
	}

	w, err := a.store.Create(path)
	if err != nil {
		return nil, err
	}
	return &quotaWriter{w: w, remaining: a.maxSize - used}, nil
}

// Release deletes the content at path and forgets the reservation.
func (a *CaptureArea) Release(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.reserved, path)
	return a.store.Remove(path)
}

// Size returns the total size of captured content in bytes.
func (a *CaptureArea) Size() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.ContentSize()
}

// Reserved returns the number of outstanding reservations.
func (a *CaptureArea) Reserved() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.reserved)
}

// quotaWriter fails once more than remaining bytes have been written.
type quotaWriter struct {
	w         io.WriteCloser
	remaining int64
}

func (q *quotaWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > q.remaining {
		return 0, ErrCaptureAreaFull
	}
	n, err := q.w.Write(p)
	q.remaining -= int64(n)
	return n, err
}

func (q *quotaWriter) Close() error {
	return q.w.Close()
}
