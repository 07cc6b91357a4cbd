package api

import (
	"database/sql"
	"errors"
	"time"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
	"ovc-go/internal/ovc"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newList[S any, T any](rows []S, convert func(S) T) listResponse[T] {
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		items = append(items, convert(row))
	}
	return listResponse[T]{Items: items, Total: len(items)}
}

type alertResponse struct {
	ID             string     `json:"id"`
	FileID         string     `json:"file_id"`
	Type           string     `json:"type"`
	Message        string     `json:"message"`
	State          string     `json:"state"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	ClearedAt      *time.Time `json:"cleared_at,omitempty"`
	ClearedBy      string     `json:"cleared_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toAlert(a *sqlc.FileAlert) alertResponse {
	return alertResponse{
		ID:             a.ID,
		FileID:         a.MonitoredFileID,
		Type:           a.AlertType,
		Message:        a.Message,
		State:          a.State,
		AcknowledgedAt: timePtr(a.AcknowledgedAt),
		AcknowledgedBy: a.AcknowledgedBy,
		ClearedAt:      timePtr(a.ClearedAt),
		ClearedBy:      a.ClearedBy,
		CreatedAt:      a.CreatedAt,
	}
}

type versionResponse struct {
	ID                string     `json:"id"`
	FileID            string     `json:"file_id"`
	VersionNo         int64      `json:"version_no"`
	FileName          string     `json:"file_name"`
	ParentDirectory   string     `json:"parent_directory"`
	AbsoluteDirectory string     `json:"absolute_directory"`
	FileSize          string     `json:"file_size"`
	SizeBytes         *int64     `json:"size_bytes,omitempty"`
	FileHash          string     `json:"file_hash"`
	FileModifiedAt    *time.Time `json:"file_modified_at,omitempty"`
	DetectedAt        time.Time  `json:"detected_at"`
	Archived          bool       `json:"archived"`
	Encrypted         bool       `json:"encrypted"`
}

func toVersion(v *sqlc.FileVersion) versionResponse {
	resp := versionResponse{
		ID:                v.ID,
		FileID:            v.MonitoredFileID,
		VersionNo:         v.VersionNo,
		FileName:          v.FileName,
		ParentDirectory:   v.ParentDirectory,
		AbsoluteDirectory: v.AbsoluteDirectory,
		FileSize:          v.FileSize,
		FileHash:          v.FileHash,
		FileModifiedAt:    timePtr(v.FileModifiedAt),
		DetectedAt:        v.DetectedAt,
		Archived:          v.StoredLocation != "",
		Encrypted:         v.Encrypted,
	}
	if n, ok := model.ParseSize(v.FileSize); ok {
		resp.SizeBytes = &n
	}
	return resp
}

type historyResponse struct {
	ID                string     `json:"id"`
	FileID            string     `json:"file_id"`
	VersionID         string     `json:"version_id"`
	VersionNo         int64      `json:"version_no"`
	FileName          string     `json:"file_name"`
	AbsoluteDirectory string     `json:"absolute_directory"`
	FileSize          string     `json:"file_size"`
	FileHash          string     `json:"file_hash"`
	FileModifiedAt    *time.Time `json:"file_modified_at,omitempty"`
	DetectedAt        time.Time  `json:"detected_at"`
}

func toHistory(h *sqlc.FileChangeHistory) historyResponse {
	return historyResponse{
		ID:                h.ID,
		FileID:            h.MonitoredFileID,
		VersionID:         h.VersionID,
		VersionNo:         h.VersionNo,
		FileName:          h.FileName,
		AbsoluteDirectory: h.AbsoluteDirectory,
		FileSize:          h.FileSize,
		FileHash:          h.FileHash,
		FileModifiedAt:    timePtr(h.FileModifiedAt),
		DetectedAt:        h.DetectedAt,
	}
}

type outcomeResponse struct {
	FileID        string           `json:"file_id"`
	Result        string           `json:"result"`
	Version       *versionResponse `json:"version,omitempty"`
	Alert         *alertResponse   `json:"alert,omitempty"`
	ScanError     string           `json:"scan_error,omitempty"`
	ScanErrorCode string           `json:"scan_error_code,omitempty"`
}

func toOutcome(o *ovc.DetectionOutcome) outcomeResponse {
	resp := outcomeResponse{FileID: o.FileID, Result: string(o.Kind)}
	if o.Version != nil {
		v := toVersion(o.Version)
		resp.Version = &v
	}
	if o.Alert != nil {
		a := toAlert(o.Alert)
		resp.Alert = &a
	}
	if o.ScanErr != nil {
		resp.ScanError = o.ScanErr.Error()
		var se *ovc.ScanError
		if errors.As(o.ScanErr, &se) {
			resp.ScanErrorCode = string(se.Code)
		}
	}
	return resp
}

type scanLogResponse struct {
	ID              string    `json:"id"`
	DirectoryID     string    `json:"directory_id"`
	ScannedAt       time.Time `json:"scanned_at"`
	FilesScanned    int64     `json:"files_scanned"`
	ChangesDetected int64     `json:"changes_detected"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
}

func toScanLog(l *sqlc.ScanLog) scanLogResponse {
	return scanLogResponse{
		ID:              l.ID,
		DirectoryID:     l.DirectoryID,
		ScannedAt:       l.ScannedAt,
		FilesScanned:    l.FilesScanned,
		ChangesDetected: l.ChangesDetected,
		Status:          l.Status,
		Message:         l.Message,
	}
}

type fileFailureResponse struct {
	FileID string `json:"file_id"`
	Error  string `json:"error"`
}

type directoryScanResponse struct {
	DirectoryID string                `json:"directory_id"`
	Path        string                `json:"path"`
	Log         scanLogResponse       `json:"log"`
	Outcomes    []outcomeResponse     `json:"outcomes"`
	Failures    []fileFailureResponse `json:"failures"`
}

func toDirectoryScan(res *ovc.DirectoryScanResult) directoryScanResponse {
	resp := directoryScanResponse{
		DirectoryID: res.Directory.ID,
		Path:        res.Directory.Path,
		Log:         toScanLog(res.Log),
		Outcomes:    make([]outcomeResponse, 0, len(res.Outcomes)),
		Failures:    make([]fileFailureResponse, 0, len(res.Failures)),
	}
	for _, o := range res.Outcomes {
		resp.Outcomes = append(resp.Outcomes, toOutcome(o))
	}
	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, fileFailureResponse{FileID: f.FileID, Error: f.Err.Error()})
	}
	return resp
}

type restoreResponse struct {
	VersionID     string   `json:"version_id"`
	VersionNo     int64    `json:"version_no"`
	Address       string   `json:"address"`
	ClearedAlerts []string `json:"cleared_alerts"`
	ClearErrors   []string `json:"clear_errors,omitempty"`
}

func toRestore(res *ovc.RestoreResult) restoreResponse {
	resp := restoreResponse{
		VersionID:     res.Version.ID,
		VersionNo:     res.Version.VersionNo,
		Address:       res.Address,
		ClearedAlerts: make([]string, 0, len(res.ClearedAlerts)),
	}
	for _, a := range res.ClearedAlerts {
		resp.ClearedAlerts = append(resp.ClearedAlerts, a.ID)
	}
	for _, err := range res.ClearErrors {
		resp.ClearErrors = append(resp.ClearErrors, err.Error())
	}
	return resp
}

type alertEventResponse struct {
	FileID  string `json:"file_id"`
	AlertID string `json:"alert_id"`
	State   string `json:"state"`
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
