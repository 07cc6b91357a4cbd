package ovc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a file, version, directory, alert or
	// archived object does not exist or has been soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a concurrent writer already assigned the
	// version number or changed the row being updated. Callers may retry.
	ErrConflict = errors.New("conflict")

	// ErrPersistence wraps storage failures. Nothing from the failed
	// operation is visible afterwards.
	ErrPersistence = errors.New("persistence failure")

	ErrScanFailed    = errors.New("scan failed")
	ErrRestoreFailed = errors.New("restore failed")

	ErrAlreadyAcknowledged = errors.New("alert already acknowledged")
	ErrAlreadyCleared      = errors.New("alert already cleared")

	// ErrPassphraseRequired is returned when encrypted archive bytes are
	// read without an unlocked key.
	ErrPassphraseRequired = errors.New("archived copy is encrypted but no passphrase was provided")
)

// ScanFailureCode classifies why a scan produced no result.
type ScanFailureCode string

const (
	ScanNotFound    ScanFailureCode = "not_found"
	ScanUnreachable ScanFailureCode = "unreachable"
	ScanScriptError ScanFailureCode = "script_error"
	ScanBadOutput   ScanFailureCode = "bad_output"
	ScanTimeout     ScanFailureCode = "timeout"
	ScanOther       ScanFailureCode = "failed"
)

// ScanError is the structured failure returned by a Scanner.
// Only ScanNotFound is treated as evidence that the file is gone.
type ScanError struct {
	Code    ScanFailureCode
	Address string
	Reason  string
}

func (e *ScanError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("scan failed (%s) via %s: %s", e.Code, e.Address, e.Reason)
	}
	return fmt.Sprintf("scan failed (%s): %s", e.Code, e.Reason)
}

func (e *ScanError) Is(target error) bool { return target == ErrScanFailed }

// NewScanError builds a ScanError with a formatted reason.
func NewScanError(code ScanFailureCode, format string, args ...any) *ScanError {
	return &ScanError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// IsFileAbsent reports whether err is a scan failure meaning the file does not exist.
func IsFileAbsent(err error) bool {
	var se *ScanError
	return errors.As(err, &se) && se.Code == ScanNotFound
}

// RestoreError is returned when no address accepted the write-back.
type RestoreError struct {
	VersionID string
	Reason    string
	Err       error
}

func (e *RestoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("restore of version %s failed: %s: %v", e.VersionID, e.Reason, e.Err)
	}
	return fmt.Sprintf("restore of version %s failed: %s", e.VersionID, e.Reason)
}

func (e *RestoreError) Is(target error) bool { return target == ErrRestoreFailed }

func (e *RestoreError) Unwrap() error { return e.Err }

// storeErr wraps a database failure. Conflicts pass through untouched so
// callers can tell them apart from other storage failures.
func storeErr(op string, err error) error {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
