package ovc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// scansTotal counts file scans by detection outcome.
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ovc_scans_total",
		Help: "File scans by detection outcome",
	}, []string{"result"})

	changesDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ovc_changes_detected_total",
		Help: "Alerts raised by change detection, by alert type",
	}, []string{"type"})

	alertTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ovc_alert_transitions_total",
		Help: "Alert state transitions, by target state",
	}, []string{"to"})

	restoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ovc_restores_total",
		Help: "Restore attempts by result",
	}, []string{"result"})

	// scanDurationSeconds covers the scanner call including address fallback.
	scanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ovc_scan_duration_seconds",
		Help:    "Duration of a single file scan in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)
