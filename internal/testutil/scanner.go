package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"ovc-go/internal/ovc"
)

// FakeFile is a file on a fake device.
type FakeFile struct {
	Content    []byte
	ModifiedAt *time.Time
}

// ScanCall records one FakeScanner.Scan invocation.
type ScanCall struct {
	Address string
	Path    string
	Dest    string
}

// WriteBackCall records one FakeScanner.WriteBack invocation.
type WriteBackCall struct {
	Address string
	Path    string
	Content []byte
}

// FakeScanner is an in-memory ovc.Scanner. Files live in a single namespace
// shared by every address; failures can be programmed per address or per path.
// Captured bytes are written through the capture area the service uses.
type FakeScanner struct {
	mu       sync.Mutex
	capture  ovc.CaptureArea
	files    map[string]*FakeFile
	addrErrs map[string]error
	pathErrs map[string]error
	// writeBackErrs fail WriteBack per address.
	writeBackErrs map[string]error
	scans         []ScanCall
	writeBacks    []WriteBackCall
}

var _ ovc.Scanner = (*FakeScanner)(nil)

// NewFakeScanner creates a FakeScanner that captures into capture.
func NewFakeScanner(capture ovc.CaptureArea) *FakeScanner {
	return &FakeScanner{
		capture:       capture,
		files:         make(map[string]*FakeFile),
		addrErrs:      make(map[string]error),
		pathErrs:      make(map[string]error),
		writeBackErrs: make(map[string]error),
	}
}

// SetFile creates or replaces the file at path.
func (f *FakeScanner) SetFile(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = &FakeFile{Content: bytes.Clone(content)}
}

// SetFileModified creates or replaces the file at path with a modification time.
func (f *FakeScanner) SetFileModified(path string, content []byte, modifiedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = &FakeFile{Content: bytes.Clone(content), ModifiedAt: &modifiedAt}
}

// RemoveFile deletes the file at path so scans report not_found.
func (f *FakeScanner) RemoveFile(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
}

// File returns the current content at path.
func (f *FakeScanner) File(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[path]
	if !ok {
		return nil, false
	}
	return bytes.Clone(file.Content), true
}

// FailAddress makes every Scan through address return err. A nil err clears it.
func (f *FakeScanner) FailAddress(address string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.addrErrs, address)
		return
	}
	f.addrErrs[address] = err
}

// FailPath makes every Scan of path return err. A nil err clears it.
func (f *FakeScanner) FailPath(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.pathErrs, path)
		return
	}
	f.pathErrs[path] = err
}

// FailWriteBack makes WriteBack through address return err. A nil err clears it.
func (f *FakeScanner) FailWriteBack(address string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.writeBackErrs, address)
		return
	}
	f.writeBackErrs[address] = err
}

// Scans returns the recorded Scan calls.
func (f *FakeScanner) Scans() []ScanCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ScanCall(nil), f.scans...)
}

// WriteBacks returns the recorded successful and failed WriteBack calls.
func (f *FakeScanner) WriteBacks() []WriteBackCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]WriteBackCall(nil), f.writeBacks...)
}

func (f *FakeScanner) Scan(ctx context.Context, address, filePath, archiveDestination string) (*ovc.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.scans = append(f.scans, ScanCall{Address: address, Path: filePath, Dest: archiveDestination})
	if err, ok := f.addrErrs[address]; ok {
		f.mu.Unlock()
		return nil, err
	}
	if err, ok := f.pathErrs[filePath]; ok {
		f.mu.Unlock()
		return nil, err
	}
	file, ok := f.files[filePath]
	var content []byte
	var modifiedAt *time.Time
	if ok {
		content = bytes.Clone(file.Content)
		modifiedAt = file.ModifiedAt
	}
	f.mu.Unlock()

	if !ok {
		return nil, &ovc.ScanError{Code: ovc.ScanNotFound, Address: address, Reason: "File not found: " + filePath}
	}

	if archiveDestination != "" {
		if err := f.writeCapture(archiveDestination, content); err != nil {
			return nil, ovc.NewScanError(ovc.ScanOther, "capturing %s: %v", filePath, err)
		}
	}

	return &ovc.ScanResult{
		FileSize:       strconv.Itoa(len(content)),
		FileHash:       SHA256Hex(content),
		FileModifiedAt: modifiedAt,
	}, nil
}

func (f *FakeScanner) WriteBack(ctx context.Context, address, filePath, sourcePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := f.readCapture(sourcePath)
	if err != nil {
		return fmt.Errorf("reading staged copy: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeBacks = append(f.writeBacks, WriteBackCall{Address: address, Path: filePath, Content: content})
	if err, ok := f.writeBackErrs[address]; ok {
		return err
	}
	if err, ok := f.addrErrs[address]; ok {
		return err
	}
	f.files[filePath] = &FakeFile{Content: content}
	return nil
}

func (f *FakeScanner) writeCapture(path string, content []byte) error {
	w, err := f.capture.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (f *FakeScanner) readCapture(path string) ([]byte, error) {
	r, err := f.capture.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
