package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"ovc-go/internal/ovc"
)

// localAddresses are the device addresses LocalScanner treats as this host.
var localAddresses = map[string]bool{
	"local":     true,
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// LocalScanner probes files on the machine running ovc. It serves devices
// whose files are mounted locally, and needs no external scripts.
type LocalScanner struct{}

var _ ovc.Scanner = (*LocalScanner)(nil)

// NewLocalScanner creates a LocalScanner.
func NewLocalScanner() *LocalScanner {
	return &LocalScanner{}
}

// Scan stats filePath, hashes its content with SHA-256 and, when
// archiveDestination is set, copies the same bytes there.
func (l *LocalScanner) Scan(ctx context.Context, address, filePath, archiveDestination string) (*ovc.ScanResult, error) {
	if err := l.check(address, filePath); err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ovc.ScanError{Code: ovc.ScanNotFound, Address: address, Reason: fmt.Sprintf("File not found: %s", filePath)}
		}
		return nil, &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: err.Error()}
	}
	if info.IsDir() {
		return nil, &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: fmt.Sprintf("%s is a directory", filePath)}
	}

	src, err := os.Open(filePath)
	if err != nil {
		return nil, &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: err.Error()}
	}
	defer src.Close()

	h := sha256.New()
	var n int64
	if archiveDestination == "" {
		n, err = io.Copy(h, &ctxReader{ctx: ctx, r: src})
	} else {
		n, err = writeAtomic(archiveDestination, io.TeeReader(&ctxReader{ctx: ctx, r: src}, h))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: err.Error()}
	}

	mt := info.ModTime().UTC()
	return &ovc.ScanResult{
		FileSize:       strconv.FormatInt(n, 10),
		FileHash:       hex.EncodeToString(h.Sum(nil)),
		FileModifiedAt: &mt,
	}, nil
}

// WriteBack replaces filePath with the content of sourcePath atomically,
// creating missing parent directories.
func (l *LocalScanner) WriteBack(ctx context.Context, address, filePath, sourcePath string) error {
	if err := l.check(address, filePath); err != nil {
		return err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: fmt.Sprintf("opening source: %v", err)}
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: err.Error()}
	}
	if _, err := writeAtomic(filePath, &ctxReader{ctx: ctx, r: src}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: err.Error()}
	}
	return nil
}

func (l *LocalScanner) check(address, filePath string) error {
	if !localAddresses[address] {
		return &ovc.ScanError{Code: ovc.ScanUnreachable, Address: address, Reason: "local scanner only reaches this host"}
	}
	if !filepath.IsAbs(filePath) {
		return &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: fmt.Sprintf("file path must be absolute: %q", filePath)}
	}
	return nil
}

// writeAtomic writes r to path through a temp file in the same directory.
func writeAtomic(path string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ovc-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
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
