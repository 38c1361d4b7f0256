package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	FileUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_uploads_total",
			Help: "Total number of file uploads",
		},
		[]string{"status"},
	)

	FileUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "file_upload_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	ProcessingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_processing_total",
			Help: "Total number of per-file processing runs",
		},
		[]string{"status"},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_processing_duration_seconds",
			Help:    "Duration of per-file processing in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	BytesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_processing_bytes_saved_total",
			Help: "Cumulative bytes shaved off by processing (negative deltas are skipped)",
		},
	)

	GateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_rejections_total",
			Help: "Fail-fast gate rejections by gate name",
		},
		[]string{"gate"},
	)

	CleanupRemovals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storage_cleanup_removals_total",
			Help: "Files removed by the TTL cleanup sweep",
		},
	)
)

func RecordUpload(status string) {
	FileUploadsTotal.WithLabelValues(status).Inc()
}

func ObserveUploadSize(bytes int64) {
	FileUploadBytes.Observe(float64(bytes))
}

func RecordProcessing(status string, d time.Duration) {
	ProcessingTotal.WithLabelValues(status).Inc()
	ProcessingDuration.Observe(d.Seconds())
}

func ObserveBytesSaved(delta int64) {
	if delta > 0 {
		BytesSaved.Add(float64(delta))
	}
}

func RecordGateRejection(gate string) {
	GateRejections.WithLabelValues(gate).Inc()
}

func RecordCleanupRemovals(n int) {
	CleanupRemovals.Add(float64(n))
}
