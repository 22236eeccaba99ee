// Package metrics provides Prometheus metrics for CamSentry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "camsentry"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Camera ingress metrics
var (
	// FramesReceived counts frames accepted per camera.
	FramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "camera",
			Name:      "frames_received_total",
			Help:      "Total camera frames received",
		},
		[]string{"camera"},
	)

	// FrameBytes tracks received frame payload sizes.
	FrameBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "camera",
			Name:      "frame_bytes",
			Help:      "Size of received camera frames in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	// StatusUpdates counts status pushes per camera.
	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "camera",
			Name:      "status_updates_total",
			Help:      "Total camera status updates received",
		},
		[]string{"camera"},
	)
)

// Broadcast metrics
var (
	// WSClients tracks connected viewer sessions.
	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "clients",
			Help:      "Number of connected WebSocket viewer sessions",
		},
	)

	// BroadcastsTotal counts broadcast messages by event type.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "broadcasts_total",
			Help:      "Total broadcast messages fanned out",
		},
		[]string{"event"},
	)
)

// Monitor metrics
var (
	// MonitorAlertsTotal counts ingested alerts by severity.
	MonitorAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "alerts_total",
			Help:      "Total alerts classified from the eve log",
		},
		[]string{"severity"},
	)

	// MonitorEventsTotal counts ingested events by type.
	MonitorEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "events_total",
			Help:      "Total informational events classified from the eve log",
		},
		[]string{"type"},
	)

	// MonitorLinesDiscarded counts unparsable eve lines.
	MonitorLinesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "lines_discarded_total",
			Help:      "Total eve log lines discarded as unparsable",
		},
	)
)

// Integration metrics
var (
	// IntegrationActions counts outbound integration attempts by kind and result.
	IntegrationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "integrations",
			Name:      "actions_total",
			Help:      "Total outbound integration actions",
		},
		[]string{"kind", "result"}, // kind: upload, notify; result: ok, skipped, error
	)

	// IntegrationDuration tracks outbound call latency by kind.
	IntegrationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "integrations",
			Name:      "duration_seconds",
			Help:      "Outbound integration call latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)
)

// Info metric
var (
	// BuildInfo exposes build information.
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)
)

// SetBuildInfo sets the build info metric.
func SetBuildInfo(version, commit, buildTime string) {
	BuildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}
