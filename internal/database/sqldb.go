package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ovc-go/internal/database/migrations"
	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/ovc"
)

// SQLDatabase implements ovc.Database on top of database/sql. The same
// queries run on SQLite and PostgreSQL.
type SQLDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	engine  migrations.Engine
	path    string
}

func newSQLDatabase(db *sql.DB, engine migrations.Engine, path string) *SQLDatabase {
	return &SQLDatabase{
		db:      db,
		queries: sqlc.New(db),
		engine:  engine,
		path:    path,
	}
}

// Device inventory

func (s *SQLDatabase) CreateDevice(ctx context.Context, device *sqlc.Device) error {
	err := s.queries.InsertDevice(ctx, sqlc.InsertDeviceParams{
		ID:        device.ID,
		Name:      device.Name,
		Status:    device.Status,
		CreatedAt: device.CreatedAt,
	})
	return wrapErr("inserting device", err)
}

func (s *SQLDatabase) FindDevice(ctx context.Context, id string) (*sqlc.Device, error) {
	device, err := s.queries.GetDevice(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding device: %w", err)
	}
	return &device, nil
}

func (s *SQLDatabase) ListDevices(ctx context.Context) ([]*sqlc.Device, error) {
	devices, err := s.queries.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return ptrs(devices), nil
}

func (s *SQLDatabase) CreateDeviceAddress(ctx context.Context, addr *sqlc.DeviceAddress) error {
	err := s.queries.InsertDeviceAddress(ctx, sqlc.InsertDeviceAddressParams{
		ID:          addr.ID,
		DeviceID:    addr.DeviceID,
		Address:     addr.Address,
		AddressType: addr.AddressType,
		Priority:    addr.Priority,
		Status:      addr.Status,
		CreatedAt:   addr.CreatedAt,
	})
	return wrapErr("inserting device address", err)
}

func (s *SQLDatabase) ListDeviceAddresses(ctx context.Context, deviceID string) ([]*sqlc.DeviceAddress, error) {
	addrs, err := s.queries.ListDeviceAddresses(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("listing device addresses: %w", err)
	}
	return ptrs(addrs), nil
}

// Directory operations

func (s *SQLDatabase) CreateDirectory(ctx context.Context, dir *sqlc.MonitoredDirectory) error {
	err := s.queries.InsertDirectory(ctx, sqlc.InsertDirectoryParams{
		ID:        dir.ID,
		DeviceID:  dir.DeviceID,
		Path:      dir.Path,
		Active:    dir.Active,
		Status:    dir.Status,
		CreatedAt: dir.CreatedAt,
	})
	return wrapErr("inserting directory", err)
}

func (s *SQLDatabase) FindDirectory(ctx context.Context, id string) (*sqlc.MonitoredDirectory, error) {
	dir, err := s.queries.GetDirectory(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding directory: %w", err)
	}
	return &dir, nil
}

func (s *SQLDatabase) FindDirectoryByPath(ctx context.Context, deviceID, path string) (*sqlc.MonitoredDirectory, error) {
	dir, err := s.queries.GetDirectoryByDevicePath(ctx, sqlc.GetDirectoryByDevicePathParams{
		DeviceID: deviceID,
		Path:     path,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding directory by path: %w", err)
	}
	return &dir, nil
}

func (s *SQLDatabase) ListDirectories(ctx context.Context, deviceID string) ([]*sqlc.MonitoredDirectory, error) {
	var (
		dirs []sqlc.MonitoredDirectory
		err  error
	)
	if deviceID == "" {
		dirs, err = s.queries.ListDirectories(ctx)
	} else {
		dirs, err = s.queries.ListDirectoriesByDevice(ctx, deviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing directories: %w", err)
	}
	return ptrs(dirs), nil
}

func (s *SQLDatabase) SetDirectoryActive(ctx context.Context, id string, active bool) error {
	n, err := s.queries.UpdateDirectoryActive(ctx, sqlc.UpdateDirectoryActiveParams{Active: active, ID: id})
	if err != nil {
		return fmt.Errorf("updating directory: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("directory %s: %w", id, ovc.ErrNotFound)
	}
	return nil
}

func (s *SQLDatabase) DeleteDirectory(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	n, err := qtx.SoftDeleteDirectory(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting directory: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("directory %s: %w", id, ovc.ErrNotFound)
	}
	if err := qtx.SoftDeleteFilesByDirectory(ctx, id); err != nil {
		return fmt.Errorf("deleting directory files: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// File operations

func (s *SQLDatabase) CreateFile(ctx context.Context, file *sqlc.MonitoredFile) error {
	err := s.queries.InsertFile(ctx, sqlc.InsertFileParams{
		ID:          file.ID,
		DirectoryID: file.DirectoryID,
		FileName:    file.FileName,
		LastScanAt:  file.LastScanAt,
		Status:      file.Status,
		CreatedAt:   file.CreatedAt,
	})
	return wrapErr("inserting file", err)
}

func (s *SQLDatabase) FindFile(ctx context.Context, id string) (*sqlc.MonitoredFile, error) {
	file, err := s.queries.GetFile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return &file, nil
}

func (s *SQLDatabase) FindFileByName(ctx context.Context, directoryID, fileName string) (*sqlc.MonitoredFile, error) {
	file, err := s.queries.GetFileByDirectoryAndName(ctx, sqlc.GetFileByDirectoryAndNameParams{
		DirectoryID: directoryID,
		FileName:    fileName,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding file by name: %w", err)
	}
	return &file, nil
}

func (s *SQLDatabase) ListFiles(ctx context.Context, directoryID string) ([]*sqlc.MonitoredFile, error) {
	files, err := s.queries.ListFilesByDirectory(ctx, directoryID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return ptrs(files), nil
}

func (s *SQLDatabase) DeleteFile(ctx context.Context, id string) error {
	n, err := s.queries.SoftDeleteFile(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("file %s: %w", id, ovc.ErrNotFound)
	}
	return nil
}

func (s *SQLDatabase) TouchFile(ctx context.Context, id string, scannedAt time.Time) error {
	err := s.queries.UpdateFileLastScan(ctx, sqlc.UpdateFileLastScanParams{
		LastScanAt: sql.NullTime{Time: scannedAt, Valid: true},
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("updating last scan time: %w", err)
	}
	return nil
}

// Version operations

func (s *SQLDatabase) CreateVersion(ctx context.Context, version *sqlc.FileVersion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertNextVersion(ctx, s.queries.WithTx(tx), version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("committing transaction", err)
	}
	return nil
}

// insertNextVersion numbers version one past the file's highest version and
// inserts it. A concurrent writer that took the same number surfaces as
// ovc.ErrConflict through the unique index.
func insertNextVersion(ctx context.Context, qtx *sqlc.Queries, version *sqlc.FileVersion) error {
	maxNo, err := qtx.GetMaxVersionNo(ctx, version.MonitoredFileID)
	if err != nil {
		return fmt.Errorf("finding highest version number: %w", err)
	}
	version.VersionNo = maxNo + 1

	err = qtx.InsertVersion(ctx, sqlc.InsertVersionParams{
		ID:                version.ID,
		MonitoredFileID:   version.MonitoredFileID,
		VersionNo:         version.VersionNo,
		FileName:          version.FileName,
		ParentDirectory:   version.ParentDirectory,
		AbsoluteDirectory: version.AbsoluteDirectory,
		FileSize:          version.FileSize,
		FileHash:          version.FileHash,
		FileModifiedAt:    version.FileModifiedAt,
		DetectedAt:        version.DetectedAt,
		StoredLocation:    version.StoredLocation,
		Encrypted:         version.Encrypted,
		Status:            version.Status,
		CreatedAt:         version.CreatedAt,
	})
	return wrapErr("inserting version", err)
}

func (s *SQLDatabase) FindVersion(ctx context.Context, id string) (*sqlc.FileVersion, error) {
	v, err := s.queries.GetVersion(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding version: %w", err)
	}
	return &v, nil
}

func (s *SQLDatabase) LatestVersion(ctx context.Context, fileID string) (*sqlc.FileVersion, error) {
	v, err := s.queries.GetLatestVersion(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding latest version: %w", err)
	}
	return &v, nil
}

func (s *SQLDatabase) ListVersions(ctx context.Context, fileID string) ([]*sqlc.FileVersion, error) {
	versions, err := s.queries.ListVersionsByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	return ptrs(versions), nil
}

func (s *SQLDatabase) SetVersionStoredLocation(ctx context.Context, id, location string, encrypted bool) error {
	n, err := s.queries.UpdateVersionStoredLocation(ctx, sqlc.UpdateVersionStoredLocationParams{
		StoredLocation: location,
		Encrypted:      encrypted,
		ID:             id,
	})
	if err != nil {
		return fmt.Errorf("updating stored location: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("version %s: %w", id, ovc.ErrNotFound)
	}
	return nil
}

// Change history

func (s *SQLDatabase) ListChangeHistory(ctx context.Context, fileID string) ([]*sqlc.FileChangeHistory, error) {
	rows, err := s.queries.ListChangeHistoryByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing change history: %w", err)
	}
	return ptrs(rows), nil
}

func (s *SQLDatabase) FindChangeHistoryByVersion(ctx context.Context, versionID string) (*sqlc.FileChangeHistory, error) {
	h, err := s.queries.GetChangeHistoryByVersion(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding change history: %w", err)
	}
	return &h, nil
}

// RecordDetection writes the version, history row, alert and last-scan time
// of one detection in a single transaction. The latest version is re-read
// inside the transaction; if it no longer matches d.ExpectedLatestID another
// writer got there first and ovc.ErrConflict is returned.
func (s *SQLDatabase) RecordDetection(ctx context.Context, d *ovc.Detection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	latestID := ""
	latest, err := qtx.GetLatestVersion(ctx, d.FileID)
	switch {
	case err == nil:
		latestID = latest.ID
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("finding latest version: %w", err)
	}
	if latestID != d.ExpectedLatestID {
		return fmt.Errorf("latest version of file %s changed: %w", d.FileID, ovc.ErrConflict)
	}

	if d.Version != nil {
		if err := insertNextVersion(ctx, qtx, d.Version); err != nil {
			return err
		}
		if d.History != nil {
			d.History.VersionID = d.Version.ID
			d.History.VersionNo = d.Version.VersionNo
			err := qtx.InsertChangeHistory(ctx, sqlc.InsertChangeHistoryParams{
				ID:                d.History.ID,
				MonitoredFileID:   d.History.MonitoredFileID,
				VersionID:         d.History.VersionID,
				VersionNo:         d.History.VersionNo,
				FileName:          d.History.FileName,
				ParentDirectory:   d.History.ParentDirectory,
				AbsoluteDirectory: d.History.AbsoluteDirectory,
				FileSize:          d.History.FileSize,
				FileHash:          d.History.FileHash,
				FileModifiedAt:    d.History.FileModifiedAt,
				DetectedAt:        d.History.DetectedAt,
				StoredLocation:    d.History.StoredLocation,
				CreatedAt:         d.History.CreatedAt,
			})
			if err != nil {
				return wrapErr("inserting change history", err)
			}
		}
	}

	if d.Alert != nil {
		if err := insertAlert(ctx, qtx, d.Alert); err != nil {
			return err
		}
	}

	err = qtx.UpdateFileLastScan(ctx, sqlc.UpdateFileLastScanParams{
		LastScanAt: sql.NullTime{Time: d.ScannedAt, Valid: true},
		ID:         d.FileID,
	})
	if err != nil {
		return fmt.Errorf("updating last scan time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("committing transaction", err)
	}
	return nil
}

// Alert operations

func insertAlert(ctx context.Context, q *sqlc.Queries, a *sqlc.FileAlert) error {
	err := q.InsertAlert(ctx, sqlc.InsertAlertParams{
		ID:              a.ID,
		MonitoredFileID: a.MonitoredFileID,
		AlertType:       a.AlertType,
		Message:         a.Message,
		State:           a.State,
		AcknowledgedAt:  a.AcknowledgedAt,
		AcknowledgedBy:  a.AcknowledgedBy,
		ClearedAt:       a.ClearedAt,
		ClearedBy:       a.ClearedBy,
		CreatedAt:       a.CreatedAt,
	})
	return wrapErr("inserting alert", err)
}

func (s *SQLDatabase) FindAlert(ctx context.Context, id string) (*sqlc.FileAlert, error) {
	a, err := s.queries.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding alert: %w", err)
	}
	return &a, nil
}

func (s *SQLDatabase) ListAlerts(ctx context.Context, filter ovc.AlertFilter) ([]*sqlc.FileAlert, error) {
	var (
		alerts []sqlc.FileAlert
		err    error
	)
	switch {
	case filter.FileID != "" && filter.OpenOnly:
		alerts, err = s.queries.ListOpenAlertsByFile(ctx, filter.FileID)
	case filter.FileID != "":
		alerts, err = s.queries.ListAlertsByFile(ctx, filter.FileID)
	case filter.OpenOnly:
		alerts, err = s.queries.ListOpenAlerts(ctx)
	default:
		alerts, err = s.queries.ListAlerts(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return ptrs(alerts), nil
}

func (s *SQLDatabase) UpdateAlertState(ctx context.Context, alert *sqlc.FileAlert, from string) error {
	n, err := s.queries.UpdateAlertState(ctx, sqlc.UpdateAlertStateParams{
		State:          alert.State,
		AcknowledgedAt: alert.AcknowledgedAt,
		AcknowledgedBy: alert.AcknowledgedBy,
		ClearedAt:      alert.ClearedAt,
		ClearedBy:      alert.ClearedBy,
		ID:             alert.ID,
		FromState:      from,
	})
	if err != nil {
		return fmt.Errorf("updating alert: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %s is no longer %s: %w", alert.ID, from, ovc.ErrConflict)
	}
	return nil
}

// Scan logs

func (s *SQLDatabase) CreateScanLog(ctx context.Context, log *sqlc.ScanLog) error {
	err := s.queries.InsertScanLog(ctx, sqlc.InsertScanLogParams{
		ID:              log.ID,
		DirectoryID:     log.DirectoryID,
		ScannedAt:       log.ScannedAt,
		FilesScanned:    log.FilesScanned,
		ChangesDetected: log.ChangesDetected,
		Status:          log.Status,
		Message:         log.Message,
	})
	return wrapErr("inserting scan log", err)
}

func (s *SQLDatabase) ListScanLogs(ctx context.Context, directoryID string, limit int) ([]*sqlc.ScanLog, error) {
	logs, err := s.queries.ListScanLogsByDirectory(ctx, sqlc.ListScanLogsByDirectoryParams{
		DirectoryID: directoryID,
		Limit:       int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing scan logs: %w", err)
	}
	return ptrs(logs), nil
}

// Engine returns the SQL dialect of the connection.
func (s *SQLDatabase) Engine() migrations.Engine {
	return s.engine
}

// Path returns the database file path, ":memory:", or "" for PostgreSQL.
func (s *SQLDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, s.engine)
}

// MigrateUp applies pending migrations.
func (s *SQLDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db, s.engine)
}

// Close closes the database connection.
func (s *SQLDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func ptrs[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}

// Compile-time check that SQLDatabase implements ovc.Database interface
var _ ovc.Database = (*SQLDatabase)(nil)
