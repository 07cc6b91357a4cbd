package ovc

import (
	"context"
	"time"

	"ovc-go/internal/database/sqlc"
)

// Database provides an interface for metadata storage operations.
// Lookups return (nil, nil) when the row does not exist or is soft-deleted.
// Unique-index violations are reported as ErrConflict.
type Database interface {
	// Device inventory

	CreateDevice(ctx context.Context, device *sqlc.Device) error
	FindDevice(ctx context.Context, id string) (*sqlc.Device, error)
	ListDevices(ctx context.Context) ([]*sqlc.Device, error)
	CreateDeviceAddress(ctx context.Context, addr *sqlc.DeviceAddress) error
	// ListDeviceAddresses returns the device's addresses ordered by priority.
	ListDeviceAddresses(ctx context.Context, deviceID string) ([]*sqlc.DeviceAddress, error)

	// Directory operations

	CreateDirectory(ctx context.Context, dir *sqlc.MonitoredDirectory) error
	FindDirectory(ctx context.Context, id string) (*sqlc.MonitoredDirectory, error)
	FindDirectoryByPath(ctx context.Context, deviceID, path string) (*sqlc.MonitoredDirectory, error)
	ListDirectories(ctx context.Context, deviceID string) ([]*sqlc.MonitoredDirectory, error)
	SetDirectoryActive(ctx context.Context, id string, active bool) error
	// DeleteDirectory soft-deletes the directory and every file under it.
	DeleteDirectory(ctx context.Context, id string) error

	// File operations

	CreateFile(ctx context.Context, file *sqlc.MonitoredFile) error
	FindFile(ctx context.Context, id string) (*sqlc.MonitoredFile, error)
	FindFileByName(ctx context.Context, directoryID, fileName string) (*sqlc.MonitoredFile, error)
	ListFiles(ctx context.Context, directoryID string) ([]*sqlc.MonitoredFile, error)
	DeleteFile(ctx context.Context, id string) error
	TouchFile(ctx context.Context, id string, scannedAt time.Time) error

	// Version operations

	// CreateVersion assigns version.VersionNo = max+1 and inserts the row in
	// one transaction.
	CreateVersion(ctx context.Context, version *sqlc.FileVersion) error
	FindVersion(ctx context.Context, id string) (*sqlc.FileVersion, error)
	LatestVersion(ctx context.Context, fileID string) (*sqlc.FileVersion, error)
	// ListVersions returns a file's versions, newest first.
	ListVersions(ctx context.Context, fileID string) ([]*sqlc.FileVersion, error)
	SetVersionStoredLocation(ctx context.Context, id, location string, encrypted bool) error

	// Change history

	ListChangeHistory(ctx context.Context, fileID string) ([]*sqlc.FileChangeHistory, error)
	FindChangeHistoryByVersion(ctx context.Context, versionID string) (*sqlc.FileChangeHistory, error)

	// RecordDetection atomically applies the outcome of one change detection.
	RecordDetection(ctx context.Context, d *Detection) error

	// Alert operations

	FindAlert(ctx context.Context, id string) (*sqlc.FileAlert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]*sqlc.FileAlert, error)
	// UpdateAlertState persists alert's state fields, provided the stored
	// state still equals from. Otherwise it returns ErrConflict.
	UpdateAlertState(ctx context.Context, alert *sqlc.FileAlert, from string) error

	// Scan logs

	CreateScanLog(ctx context.Context, log *sqlc.ScanLog) error
	ListScanLogs(ctx context.Context, directoryID string, limit int) ([]*sqlc.ScanLog, error)

	// Close closes the database connection.
	Close() error
}

// Detection is the set of rows written for one change-detection decision.
// Version, History and Alert are each optional; the Database fills in
// version numbers on Version and History.
type Detection struct {
	FileID string
	// ExpectedLatestID is the ID of the latest version seen when the decision
	// was made, or "" when the file had none. A mismatch at write time is a
	// conflict.
	ExpectedLatestID string
	Version          *sqlc.FileVersion
	History          *sqlc.FileChangeHistory
	Alert            *sqlc.FileAlert
	ScannedAt        time.Time
}

// AlertFilter narrows ListAlerts. The zero value matches every alert.
type AlertFilter struct {
	FileID   string
	OpenOnly bool
}
