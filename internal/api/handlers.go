// Package api serves the alert, version, scan and restore operations over
// HTTP for `ovc serve`.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/ovc"
)

// Service is the part of *ovc.Service the API calls.
type Service interface {
	GetAlert(ctx context.Context, id string) (*sqlc.FileAlert, error)
	ListAlerts(ctx context.Context, filter ovc.AlertFilter) ([]*sqlc.FileAlert, error)
	Acknowledge(ctx context.Context, alertID, actor string) (*sqlc.FileAlert, error)
	Clear(ctx context.Context, alertID, actor string) (*sqlc.FileAlert, error)

	ListVersions(ctx context.Context, fileID string) ([]*sqlc.FileVersion, error)
	ChangeHistory(ctx context.Context, fileID string) ([]*sqlc.FileChangeHistory, error)
	GetVersion(ctx context.Context, versionID string) (*sqlc.FileVersion, error)
	ArchivedBytes(ctx context.Context, versionID string, w io.Writer, decryptCtx ovc.DecryptionContext) error

	ScanFile(ctx context.Context, fileID string) (*ovc.DetectionOutcome, error)
	ScanDirectory(ctx context.Context, directoryID string) (*ovc.DirectoryScanResult, error)
	ListScanLogs(ctx context.Context, directoryID string, limit int) ([]*sqlc.ScanLog, error)

	Restore(ctx context.Context, versionID string, decryptCtx ovc.DecryptionContext) (*ovc.RestoreResult, error)
}

var _ Service = (*ovc.Service)(nil)

// Subscriber hands out alert event streams.
type Subscriber interface {
	Subscribe() (<-chan ovc.AlertEvent, func())
}

// Options configures a Handler.
type Options struct {
	// Decrypt unlocks encrypted archived copies for download and restore.
	// Nil leaves them unavailable.
	Decrypt ovc.DecryptionContext
	// KeepAlive is the interval between comment frames on the event stream.
	KeepAlive time.Duration
}

const (
	defaultKeepAlive    = 30 * time.Second
	defaultScanLogLimit = 50
)

// Handler holds the HTTP handlers.
type Handler struct {
	svc       Service
	events    Subscriber
	decrypt   ovc.DecryptionContext
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewHandler creates a Handler. events may be nil, in which case the event
// stream answers 404.
func NewHandler(svc Service, events Subscriber, logger *slog.Logger, opts Options) *Handler {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	return &Handler{
		svc:       svc,
		events:    events,
		decrypt:   opts.Decrypt,
		keepAlive: opts.KeepAlive,
		logger:    logger,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// HealthLive handles GET /health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListAlerts handles GET /api/v1/alerts?open=true&file_id=...
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := ovc.AlertFilter{FileID: r.URL.Query().Get("file_id")}
	if v := r.URL.Query().Get("open"); v != "" {
		open, err := strconv.ParseBool(v)
		if err != nil {
			validationError(w, fmt.Sprintf("invalid open parameter %q", v))
			return
		}
		filter.OpenOnly = open
	}

	alerts, err := h.svc.ListAlerts(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(alerts, toAlert))
}

func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.svc.GetAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAlert(alert))
}

// AcknowledgeAlert handles PUT /api/v1/alerts/{id}/acknowledge?by=...
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	h.transitionAlert(w, r, h.svc.Acknowledge)
}

// ClearAlert handles PUT /api/v1/alerts/{id}/clear?by=...
func (h *Handler) ClearAlert(w http.ResponseWriter, r *http.Request) {
	h.transitionAlert(w, r, h.svc.Clear)
}

func (h *Handler) transitionAlert(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, string) (*sqlc.FileAlert, error)) {
	actor := r.URL.Query().Get("by")
	if actor == "" {
		validationError(w, "query parameter \"by\" is required")
		return
	}
	alert, err := apply(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAlert(alert))
}

func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.svc.ListVersions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(versions, toVersion))
}

func (h *Handler) ChangeHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ChangeHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(rows, toHistory))
}

func (h *Handler) ScanFile(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ScanFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcome(out))
}

func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetVersion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVersion(v))
}

// DownloadVersion handles GET /api/v1/versions/{id}/download and streams the
// archived bytes as an attachment named after the file.
func (h *Handler) DownloadVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetVersion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	// Checked before any byte is written so the error can still be a JSON body.
	if v.StoredLocation == "" {
		WriteError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("version %s has no archived copy", v.ID))
		return
	}
	if v.Encrypted && h.decrypt == nil {
		WriteError(w, http.StatusBadRequest, CodeValidationError, ovc.ErrPassphraseRequired.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", v.FileName))
	if err := h.svc.ArchivedBytes(r.Context(), v.ID, w, h.decrypt); err != nil {
		h.logger.Error("download failed", "version_id", v.ID, "error", err)
	}
}

func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Restore(r.Context(), chi.URLParam(r, "id"), h.decrypt)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRestore(res))
}

func (h *Handler) ScanDirectory(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ScanDirectory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDirectoryScan(res))
}

// ListScanLogs handles GET /api/v1/directories/{id}/scan-logs?limit=N.
func (h *Handler) ListScanLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultScanLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			validationError(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	logs, err := h.svc.ListScanLogs(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(logs, toScanLog))
}
