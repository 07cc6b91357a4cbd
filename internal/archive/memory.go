package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"ovc-go/internal/ovc"
)

// MemoryArchive is an in-memory implementation of the Archive interface.
// It is useful for testing and for throwaway `memory` database setups.
// This implementation is safe for concurrent use.
type MemoryArchive struct {
	name    string
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryArchive creates a new in-memory archive with the given name.
func NewMemoryArchive(name string) *MemoryArchive {
	return &MemoryArchive{
		name:    name,
		objects: make(map[string][]byte),
	}
}

// Put stores the bytes read from r under key.
func (m *MemoryArchive) Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "memory://" + m.name + "/" + key, nil
}

// Get writes the bytes stored under key to w.
func (m *MemoryArchive) Get(ctx context.Context, key string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("archive object %s: %w", key, ovc.ErrNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

// Delete removes key.
func (m *MemoryArchive) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Has reports whether key is stored.
func (m *MemoryArchive) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// ValidateSetup always succeeds for in-memory archive.
func (m *MemoryArchive) ValidateSetup(ctx context.Context) error {
	return nil
}

// Compile-time check that MemoryArchive implements ovc.Archive interface
var _ ovc.Archive = (*MemoryArchive)(nil)
