// Package metrics exposes Prometheus collectors for the content service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestTotal                *prometheus.CounterVec
	ingestStageSeconds         *prometheus.HistogramVec
	blobUploadBytesTotal       *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		ingestTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photosite_ingest_total",
				Help: "Total number of image ingests, labeled by section and terminal status.",
			},
			[]string{"section", "status"},
		)

		ingestStageSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "photosite_ingest_stage_duration_seconds",
				Help:    "Histogram of ingest pipeline stage latencies, labeled by stage.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"stage"},
		)

		blobUploadBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photosite_blob_upload_bytes_total",
				Help: "Total number of blob bytes uploaded, labeled by section.",
			},
			[]string{"section"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// ObserveIngest counts one terminal ingest outcome for a section.
func ObserveIngest(section, status string) {
	if ingestTotal == nil {
		return
	}
	ingestTotal.WithLabelValues(section, status).Inc()
}

// ObserveIngestStage records the latency of one pipeline stage.
func ObserveIngestStage(stage string, d time.Duration) {
	if ingestStageSeconds == nil {
		return
	}
	ingestStageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// AddBlobUploadBytes counts uploaded blob bytes for a section.
func AddBlobUploadBytes(section string, n int) {
	if blobUploadBytesTotal == nil || n <= 0 {
		return
	}
	blobUploadBytesTotal.WithLabelValues(section).Add(float64(n))
}

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
