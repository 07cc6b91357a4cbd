package ovc

import (
	"context"
	"time"
)

// ScanResult is the state of a file observed by a successful scan.
type ScanResult struct {
	FileSize       string // textual form as reported, kept canonical
	FileHash       string // opaque content fingerprint
	FileModifiedAt *time.Time
}

// Scanner probes files on remote devices and writes archived bytes back.
// Failures are reported as *ScanError so callers can classify them.
type Scanner interface {
	// Scan reads the metadata of filePath on the device reachable at address.
	// When archiveDestination is non-empty the file's bytes are also copied
	// there as part of the same scan.
	Scan(ctx context.Context, address, filePath, archiveDestination string) (*ScanResult, error)

	// WriteBack copies sourcePath over filePath on the device at address.
	WriteBack(ctx context.Context, address, filePath, sourcePath string) error
}
