package staging

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
)

// memoryStore is the in-memory captureStore backend. Content becomes visible
// when its writer is closed.
type memoryStore struct {
	content map[string][]byte
	size    int64
	area    *CaptureArea
}

// NewMemoryCaptureArea creates a new in-memory capture area.
// maxSize is the maximum total size in bytes; must be positive.
func NewMemoryCaptureArea(maxSize int64) *CaptureArea {
	store := &memoryStore{content: make(map[string][]byte)}
	area := newCaptureArea(store, maxSize)
	store.area = area
	return area
}

func (m *memoryStore) Allocate(fileID, token string) (string, error) {
	return "mem://" + fileID + "/" + token, nil
}

func (m *memoryStore) Create(path string) (io.WriteCloser, error) {
	m.remove(path)
	return &memoryWriter{store: m, path: path}, nil
}

func (m *memoryStore) Open(path string) (io.ReadCloser, error) {
	data, ok := m.content[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStore) Remove(path string) error {
	m.remove(path)
	return nil
}

func (m *memoryStore) remove(path string) {
	if data, ok := m.content[path]; ok {
		m.size -= int64(len(data))
		delete(m.content, path)
	}
}

func (m *memoryStore) ContentSize() (int64, error) {
	return m.size, nil
}

// memoryWriter buffers writes and commits them to the store on Close.
type memoryWriter struct {
	store *memoryStore
	path  string
	buf   bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	// Close runs outside CaptureArea.Create, so take the area lock here.
	w.store.area.mu.Lock()
	defer w.store.area.mu.Unlock()

	w.store.remove(w.path)
	w.store.content[w.path] = w.buf.Bytes()
	w.store.size += int64(w.buf.Len())
	return nil
}
