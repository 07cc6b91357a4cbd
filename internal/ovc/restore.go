package ovc

import (
	"context"
	"fmt"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
)

// RestoreResult describes a successful restore.
type RestoreResult struct {
	Version *sqlc.FileVersion
	// Address is the device address that accepted the write-back.
	Address string
	// ClearedAlerts are the open alerts closed by the restore.
	ClearedAlerts []*sqlc.FileAlert
	// ClearErrors lists alerts that could not be cleared. The restore itself
	// still succeeded.
	ClearErrors []error
}

// Restore writes the archived bytes of a version back over the file on its
// device, then clears the file's open alerts. decryptCtx is required when the
// version was archived encrypted.
//
// A version without an archived copy yields ErrNotFound. When no device
// address accepts the write-back, a *RestoreError is returned and alerts are
// left as they were. No version or history rows are written.
func (s *Service) Restore(ctx context.Context, versionID string, decryptCtx DecryptionContext) (*RestoreResult, error) {
	v, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v.StoredLocation == "" {
		return nil, fmt.Errorf("no archived copy of version %s: %w", v.ID, ErrNotFound)
	}
	file, dir, err := s.fileAndDirectory(ctx, v.MonitoredFileID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockFile(file.ID)
	defer unlock()

	staged, err := s.stageVersion(ctx, v, decryptCtx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.capture.Release(staged); err != nil {
			s.logger.Warn("releasing restore staging", "path", staged, "error", err)
		}
	}()

	addr, err := s.writeBack(ctx, dir.DeviceID, joinRemotePath(v.AbsoluteDirectory, v.FileName), staged)
	if err != nil {
		restoresTotal.WithLabelValues("failed").Inc()
		s.logger.Error("restore failed", "version_id", v.ID, "error", err)
		return nil, &RestoreError{VersionID: v.ID, Reason: "write-back failed", Err: err}
	}
	restoresTotal.WithLabelValues("succeeded").Inc()
	s.logger.Info("version restored", "file_id", file.ID, "version_no", v.VersionNo, "address", addr)

	res := &RestoreResult{Version: v, Address: addr}
	s.clearAfterRestore(ctx, file.ID, res)
	return res, nil
}

// stageVersion copies a version's archived bytes into the capture area.
func (s *Service) stageVersion(ctx context.Context, v *sqlc.FileVersion, decryptCtx DecryptionContext) (string, error) {
	path, err := s.capture.Reserve(v.MonitoredFileID)
	if err != nil {
		return "", fmt.Errorf("reserving restore staging: %w", err)
	}

	w, err := s.capture.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating restore staging: %w", err)
	}
	readErr := s.readArchive(ctx, v, w, decryptCtx)
	closeErr := w.Close()
	if readErr == nil && closeErr != nil {
		readErr = fmt.Errorf("writing restore staging: %w", closeErr)
	}
	if readErr != nil {
		s.capture.Release(path)
		return "", readErr
	}
	return path, nil
}

// writeBack pushes staged bytes to the first device address that accepts them.
func (s *Service) writeBack(ctx context.Context, deviceID, target, staged string) (string, error) {
	addrs, err := s.resolver.Addresses(ctx, deviceID)
	if err != nil {
		return "", fmt.Errorf("resolving addresses of device %s: %w", deviceID, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("device %s has no addresses", deviceID)
	}

	var lastErr error
	for _, addr := range addrs {
		if err := s.scanner.WriteBack(ctx, addr, target, staged); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.Debug("write-back attempt failed", "address", addr, "path", target, "error", err)
			lastErr = err
			continue
		}
		return addr, nil
	}
	return "", lastErr
}

// clearAfterRestore clears every open alert of the file, one at a time.
// Failures are collected on res rather than returned.
func (s *Service) clearAfterRestore(ctx context.Context, fileID string, res *RestoreResult) {
	open, err := s.db.ListAlerts(ctx, AlertFilter{FileID: fileID, OpenOnly: true})
	if err != nil {
		res.ClearErrors = append(res.ClearErrors, storeErr("listing open alerts", err))
		s.logger.Warn("listing alerts after restore", "file_id", fileID, "error", err)
		return
	}

	for _, alert := range open {
		if err := s.applyTransition(ctx, alert, model.AlertCleared, RestoreActor); err != nil {
			res.ClearErrors = append(res.ClearErrors, err)
			s.logger.Warn("clearing alert after restore", "alert_id", alert.ID, "error", err)
			continue
		}
		res.ClearedAlerts = append(res.ClearedAlerts, alert)
		s.notifier.AlertsChanged(AlertEvent{FileID: fileID, AlertID: alert.ID, State: alert.State})
	}
}
