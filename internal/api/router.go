package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the handlers behind the logging and metrics middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(Metrics())

	r.Get("/health/live", h.HealthLive)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/alerts", h.ListAlerts)
		r.Get("/alerts/{id}", h.GetAlert)
		r.Put("/alerts/{id}/acknowledge", h.AcknowledgeAlert)
		r.Put("/alerts/{id}/clear", h.ClearAlert)

		r.Get("/files/{id}/versions", h.ListVersions)
		r.Get("/files/{id}/history", h.ChangeHistory)
		r.Post("/files/{id}/scan", h.ScanFile)

		r.Get("/versions/{id}", h.GetVersion)
		r.Get("/versions/{id}/download", h.DownloadVersion)
		r.Post("/versions/{id}/restore", h.RestoreVersion)

		r.Post("/directories/{id}/scan", h.ScanDirectory)
		r.Get("/directories/{id}/scan-logs", h.ListScanLogs)

		r.Get("/events", h.Events)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, CodeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, CodeValidationError, "method not allowed")
	})
	return r
}
