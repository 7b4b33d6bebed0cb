package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
)

// ExportMetrics records Prometheus metrics for export runs
type ExportMetrics struct {
	// exportsTotal counts finished runs by final status
	exportsTotal *prometheus.CounterVec

	// exportDuration tracks wall time of finished runs in seconds
	exportDuration prometheus.Histogram

	// pollAttempts tracks how many status queries a run needed
	pollAttempts prometheus.Histogram

	// downloadBytes counts bytes written to artifacts
	downloadBytes prometheus.Counter

	// currentlyRunning tracks the number of exports in flight
	currentlyRunning prometheus.Gauge
}

// NewExportMetrics creates and registers the export collectors
func NewExportMetrics(reg prometheus.Registerer) *ExportMetrics {
	factory := promauto.With(reg)

	return &ExportMetrics{
		exportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routescan_exports_total",
				Help: "Total number of finished export runs by status",
			},
			[]string{"status"},
		),
		exportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "routescan_export_duration_seconds",
			Help:    "Duration of export runs in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		pollAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "routescan_export_poll_attempts",
			Help:    "Number of status queries issued per export",
			Buckets: prometheus.LinearBuckets(1, 5, 12),
		}),
		downloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "routescan_download_bytes_total",
			Help: "Total number of bytes downloaded into export artifacts",
		}),
		currentlyRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "routescan_exports_currently_running",
			Help: "The number of exports currently being executed",
		}),
	}
}

func (m *ExportMetrics) ExportStarted() {
	m.currentlyRunning.Inc()
}

func (m *ExportMetrics) ExportFinished(run domain.ExportRun) {
	m.currentlyRunning.Dec()
	m.exportsTotal.WithLabelValues(string(run.Status)).Inc()
	m.exportDuration.Observe(run.Duration().Seconds())
}

func (m *ExportMetrics) PollAttempts(attempts int) {
	m.pollAttempts.Observe(float64(attempts))
}

func (m *ExportMetrics) BytesDownloaded(n int64) {
	m.downloadBytes.Add(float64(n))
}

// Push sends everything in gatherer to a Prometheus Pushgateway
func Push(ctx context.Context, url, job string, gatherer prometheus.Gatherer) error {
	logrus.Debugf("[DEBUG] Pushing metrics to %s as job %s", url, job)

	if err := push.New(url, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
