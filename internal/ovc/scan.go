package ovc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
)

// ErrDirectoryInactive is returned when scanning a paused directory.
var ErrDirectoryInactive = errors.New("directory is not active")

// ScanFile scans one monitored file and records what changed.
// A failed scan is not an error: it yields an OutcomeSkipped (or
// OutcomeDeleted when the file is gone) with ScanErr set. Files of a paused
// directory are refused with ErrDirectoryInactive.
func (s *Service) ScanFile(ctx context.Context, fileID string) (*DetectionOutcome, error) {
	file, dir, err := s.fileAndDirectory(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !dir.Active {
		return nil, fmt.Errorf("scanning %s: %w", file.FileName, ErrDirectoryInactive)
	}
	return s.scanFile(ctx, dir, file)
}

func (s *Service) scanFile(ctx context.Context, dir *sqlc.MonitoredDirectory, file *sqlc.MonitoredFile) (*DetectionOutcome, error) {
	unlock := s.lockFile(file.ID)
	defer unlock()

	dest, err := s.capture.Reserve(file.ID)
	if err != nil {
		return nil, fmt.Errorf("reserving capture path: %w", err)
	}
	defer func() {
		if err := s.capture.Release(dest); err != nil {
			s.logger.Warn("releasing capture path", "path", dest, "error", err)
		}
	}()

	start := time.Now()
	result, err := s.scanAddresses(ctx, dir.DeviceID, joinRemotePath(dir.Path, file.FileName), dest)
	scanDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrScanFailed) {
		return nil, err
	}

	return s.detect(ctx, dir, file, result, err, dest)
}

// scanAddresses tries the device's addresses in order until one scan
// succeeds. A not-found answer ends the search since the device was reached.
// Scan failures are returned as *ScanError; any other error means the scan
// could not be attempted.
func (s *Service) scanAddresses(ctx context.Context, deviceID, path, dest string) (*ScanResult, error) {
	addrs, err := s.resolver.Addresses(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("resolving addresses of device %s: %w", deviceID, err)
	}
	if len(addrs) == 0 {
		return nil, &ScanError{Code: ScanUnreachable, Reason: fmt.Sprintf("device %s has no addresses", deviceID)}
	}

	var lastErr error
	for _, addr := range addrs {
		result, err := s.scanner.Scan(ctx, addr, path, dest)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, ErrScanFailed) {
			err = &ScanError{Code: ScanOther, Address: addr, Reason: err.Error()}
		}
		s.logger.Debug("scan attempt failed", "address", addr, "path", path, "error", err)
		if IsFileAbsent(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// FileFailure is a file whose scan could not be recorded.
type FileFailure struct {
	FileID string
	Err    error
}

// DirectoryScanResult summarizes a directory scan.
type DirectoryScanResult struct {
	Directory *sqlc.MonitoredDirectory
	Outcomes  []*DetectionOutcome
	Failures  []FileFailure
	Log       *sqlc.ScanLog
}

// ScanDirectory scans every active file of an active directory and writes a
// scan log entry summarizing the run.
func (s *Service) ScanDirectory(ctx context.Context, directoryID string) (*DirectoryScanResult, error) {
	dir, err := s.GetDirectory(ctx, directoryID)
	if err != nil {
		return nil, err
	}
	if !dir.Active {
		return nil, fmt.Errorf("scanning %s: %w", dir.Path, ErrDirectoryInactive)
	}

	files, err := s.db.ListFiles(ctx, dir.ID)
	if err != nil {
		return nil, storeErr("listing files", err)
	}

	res := &DirectoryScanResult{Directory: dir}
	scanned, changes, skipped := 0, 0, 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := s.scanFile(ctx, dir, file)
		if err != nil {
			s.logger.Error("scanning file", "file_id", file.ID, "error", err)
			res.Failures = append(res.Failures, FileFailure{FileID: file.ID, Err: err})
			continue
		}
		res.Outcomes = append(res.Outcomes, out)
		if out.Kind == OutcomeSkipped {
			skipped++
			continue
		}
		scanned++
		if out.Changed() {
			changes++
		}
	}

	status := model.ScanCompleted
	switch {
	case len(files) > 0 && scanned == 0:
		status = model.ScanFailed
	case scanned < len(files):
		status = model.ScanPartial
	}

	res.Log = &sqlc.ScanLog{
		ID:              s.idgen.New(),
		DirectoryID:     dir.ID,
		ScannedAt:       s.now(),
		FilesScanned:    int64(scanned),
		ChangesDetected: int64(changes),
		Status:          string(status),
		Message:         fmt.Sprintf("%d of %d files scanned, %d skipped, %d failed, %d changes", scanned, len(files), skipped, len(res.Failures), changes),
	}
	if err := s.db.CreateScanLog(ctx, res.Log); err != nil {
		return nil, storeErr("writing scan log", err)
	}

	s.logger.Info("directory scanned", "directory_id", dir.ID, "status", status, "scanned", scanned, "changes", changes)
	return res, nil
}

// ScanAll scans every active directory. Directories are scanned in parallel
// up to the configured concurrency; files within a directory run in order.
func (s *Service) ScanAll(ctx context.Context) ([]*DirectoryScanResult, error) {
	dirs, err := s.db.ListDirectories(ctx, "")
	if err != nil {
		return nil, storeErr("listing directories", err)
	}

	var active []*sqlc.MonitoredDirectory
	for _, d := range dirs {
		if d.Active {
			active = append(active, d)
		}
	}

	results := make([]*DirectoryScanResult, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, d := range active {
		g.Go(func() error {
			res, err := s.ScanDirectory(gctx, d.ID)
			if err != nil {
				return fmt.Errorf("scanning directory %s: %w", d.Path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListScanLogs returns the most recent scan logs of a directory, newest first.
func (s *Service) ListScanLogs(ctx context.Context, directoryID string, limit int) ([]*sqlc.ScanLog, error) {
	if limit <= 0 {
		limit = 50
	}
	logs, err := s.db.ListScanLogs(ctx, directoryID, limit)
	if err != nil {
		return nil, storeErr("listing scan logs", err)
	}
	return logs, nil
}
