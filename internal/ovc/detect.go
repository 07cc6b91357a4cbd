package ovc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
)

// OutcomeKind is the decision change detection made for one scan.
type OutcomeKind string

const (
	OutcomeBaseline     OutcomeKind = "baseline"      // first version recorded, no alert
	OutcomeModified     OutcomeKind = "modified"      // new version, history row and MODIFIED alert
	OutcomeDeleted      OutcomeKind = "deleted"       // DELETED alert, no version
	OutcomeStillMissing OutcomeKind = "still_missing" // absent again while a DELETED alert is open
	OutcomeUnchanged    OutcomeKind = "unchanged"
	OutcomeSkipped      OutcomeKind = "skipped" // scan failed, nothing recorded
)

// DetectionOutcome reports what one detection cycle recorded.
type DetectionOutcome struct {
	FileID  string
	Kind    OutcomeKind
	Version *sqlc.FileVersion
	History *sqlc.FileChangeHistory
	Alert   *sqlc.FileAlert
	// ScanErr is the scan failure behind a skipped, deleted or still-missing outcome.
	ScanErr error
}

// Changed reports whether the detection raised an alert.
func (o *DetectionOutcome) Changed() bool {
	return o.Alert != nil
}

// maxDetectAttempts bounds retries after losing a version-number race to
// another process.
const maxDetectAttempts = 3

// DetectAndRecord compares a scan of fileID against its latest version and
// records the outcome: a baseline version, a new version with history and a
// MODIFIED alert, a DELETED alert, or nothing. scanErr is the scanner's
// failure, if any; result is ignored when scanErr is non-nil.
func (s *Service) DetectAndRecord(ctx context.Context, fileID string, result *ScanResult, scanErr error) (*DetectionOutcome, error) {
	file, dir, err := s.fileAndDirectory(ctx, fileID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockFile(fileID)
	defer unlock()

	return s.detect(ctx, dir, file, result, scanErr, "")
}

// detect runs detection with the file lock held. capturePath, when set, holds
// the bytes the scanner captured; they are archived if a version is created.
func (s *Service) detect(ctx context.Context, dir *sqlc.MonitoredDirectory, file *sqlc.MonitoredFile, result *ScanResult, scanErr error, capturePath string) (*DetectionOutcome, error) {
	if scanErr == nil && result == nil {
		return nil, fmt.Errorf("detecting changes for %s: no scan result", file.ID)
	}

	var (
		out *DetectionOutcome
		err error
	)
	for attempt := 1; attempt <= maxDetectAttempts; attempt++ {
		out, err = s.detectOnce(ctx, dir, file, result, scanErr, capturePath)
		if !errors.Is(err, ErrConflict) {
			break
		}
		s.logger.Warn("detection conflict, retrying", "file_id", file.ID, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	scansTotal.WithLabelValues(string(out.Kind)).Inc()
	if out.Alert != nil {
		changesDetectedTotal.WithLabelValues(out.Alert.AlertType).Inc()
		s.notifier.AlertsChanged(AlertEvent{FileID: file.ID, AlertID: out.Alert.ID, State: out.Alert.State})
	}

	switch out.Kind {
	case OutcomeSkipped:
		s.logger.Warn("scan skipped", "file_id", file.ID, "error", out.ScanErr)
	case OutcomeBaseline, OutcomeModified:
		s.logger.Info("version recorded", "file_id", file.ID, "kind", out.Kind, "version_no", out.Version.VersionNo)
	case OutcomeDeleted:
		s.logger.Info("file missing", "file_id", file.ID, "alert_id", out.Alert.ID)
	default:
		s.logger.Debug("file checked", "file_id", file.ID, "kind", out.Kind)
	}
	return out, nil
}

func (s *Service) detectOnce(ctx context.Context, dir *sqlc.MonitoredDirectory, file *sqlc.MonitoredFile, result *ScanResult, scanErr error, capturePath string) (*DetectionOutcome, error) {
	latest, err := s.db.LatestVersion(ctx, file.ID)
	if err != nil {
		return nil, storeErr("finding latest version", err)
	}

	now := s.now()
	out := &DetectionOutcome{FileID: file.ID, ScanErr: scanErr}

	if scanErr != nil {
		if latest == nil || !IsFileAbsent(scanErr) {
			out.Kind = OutcomeSkipped
			return out, nil
		}
		return s.recordAbsence(ctx, file, latest, out, now)
	}

	if latest != nil && latest.FileHash == result.FileHash {
		if err := s.db.TouchFile(ctx, file.ID, now); err != nil {
			return nil, storeErr("updating last scan time", err)
		}
		out.Kind = OutcomeUnchanged
		return out, nil
	}

	version := s.newVersion(s.idgen.New(), file, dir, result.FileSize, result.FileHash, result.FileModifiedAt, now)
	if capturePath != "" {
		location, encrypted, err := s.archiveCapture(ctx, file.ID, version.ID, capturePath)
		if err != nil {
			return nil, fmt.Errorf("archiving captured copy: %w", err)
		}
		version.StoredLocation = location
		version.Encrypted = encrypted
	}

	d := &Detection{FileID: file.ID, Version: version, ScannedAt: now}
	out.Version = version
	if latest == nil {
		out.Kind = OutcomeBaseline
	} else {
		out.Kind = OutcomeModified
		d.ExpectedLatestID = latest.ID
		d.History = historyFor(s.idgen.New(), version)
		d.Alert = s.newAlert(file, model.AlertModified, now)
		out.History = d.History
		out.Alert = d.Alert
	}

	if err := s.db.RecordDetection(ctx, d); err != nil {
		if version.StoredLocation != "" {
			if delErr := s.archive.Delete(ctx, ArchiveKey(file.ID, version.ID)); delErr != nil {
				s.logger.Warn("removing orphaned archive copy", "version_id", version.ID, "error", delErr)
			}
		}
		return nil, storeErr("recording detection", err)
	}
	return out, nil
}

// recordAbsence raises a DELETED alert unless one is already open for file.
func (s *Service) recordAbsence(ctx context.Context, file *sqlc.MonitoredFile, latest *sqlc.FileVersion, out *DetectionOutcome, now time.Time) (*DetectionOutcome, error) {
	open, err := s.db.ListAlerts(ctx, AlertFilter{FileID: file.ID, OpenOnly: true})
	if err != nil {
		return nil, storeErr("listing open alerts", err)
	}
	for _, a := range open {
		if a.AlertType == string(model.AlertDeleted) {
			if err := s.db.TouchFile(ctx, file.ID, now); err != nil {
				return nil, storeErr("updating last scan time", err)
			}
			out.Kind = OutcomeStillMissing
			return out, nil
		}
	}

	alert := s.newAlert(file, model.AlertDeleted, now)
	d := &Detection{FileID: file.ID, ExpectedLatestID: latest.ID, Alert: alert, ScannedAt: now}
	if err := s.db.RecordDetection(ctx, d); err != nil {
		return nil, storeErr("recording detection", err)
	}
	out.Kind = OutcomeDeleted
	out.Alert = alert
	return out, nil
}

func (s *Service) newAlert(file *sqlc.MonitoredFile, t model.AlertType, now time.Time) *sqlc.FileAlert {
	return &sqlc.FileAlert{
		ID:              s.idgen.New(),
		MonitoredFileID: file.ID,
		AlertType:       string(t),
		Message:         model.AlertMessage(file.FileName, t),
		State:           string(model.AlertNew),
		CreatedAt:       now,
	}
}

// historyFor copies a version into a change history row. The version number
// is filled in when the version is written.
func historyFor(id string, v *sqlc.FileVersion) *sqlc.FileChangeHistory {
	return &sqlc.FileChangeHistory{
		ID:                id,
		MonitoredFileID:   v.MonitoredFileID,
		VersionID:         v.ID,
		FileName:          v.FileName,
		ParentDirectory:   v.ParentDirectory,
		AbsoluteDirectory: v.AbsoluteDirectory,
		FileSize:          v.FileSize,
		FileHash:          v.FileHash,
		FileModifiedAt:    v.FileModifiedAt,
		DetectedAt:        v.DetectedAt,
		StoredLocation:    v.StoredLocation,
		CreatedAt:         v.CreatedAt,
	}
}
