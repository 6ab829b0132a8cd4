// Package metrics exposes Prometheus collectors for the council meetings
// service.
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
	ingestMeetingsTotal     *prometheus.CounterVec
	ingestItemsTotal        prometheus.Counter
	classifierFallbackTotal prometheus.Counter
	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times.
func Init() {
	once.Do(func() {
		ingestMeetingsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "council_ingest_meetings_total",
				Help: "Total meeting ingestion runs, labeled by municipality and outcome.",
			},
			[]string{"municipality", "status"},
		)

		ingestItemsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "council_ingest_items_total",
				Help: "Total agenda items upserted across all ingestion runs.",
			},
		)

		classifierFallbackTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "council_classifier_fallback_total",
				Help: "Times the primary classifier failed and the keyword fallback was used.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method"},
		)
	})
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveIngest records the outcome of one ingestion run.
func ObserveIngest(municipality, status string, items int) {
	if ingestMeetingsTotal == nil {
		return
	}
	ingestMeetingsTotal.WithLabelValues(municipality, status).Inc()
	if items > 0 {
		ingestItemsTotal.Add(float64(items))
	}
}

// IncClassifierFallback counts a primary-to-fallback classification.
func IncClassifierFallback() {
	if classifierFallbackTotal == nil {
		return
	}
	classifierFallbackTotal.Inc()
}

// Middleware instruments HTTP handlers with request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
