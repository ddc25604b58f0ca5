// Package metrics exposes Prometheus instrumentation for the API and the
// ingest worker, each on its own registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryTotal      *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	queryChunks     *prometheus.HistogramVec
	queryConfidence *prometheus.HistogramVec
	lowConfidence   *prometheus.CounterVec
	noResultsTotal  *prometheus.CounterVec
	safetyFlagTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legalrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "legalrag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalrag",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total answered legal queries.",
		},
		[]string{"service", "endpoint"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legalrag",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "End-to-end query duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	queryChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legalrag",
			Subsystem: "query",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per answered query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	queryConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legalrag",
			Subsystem: "query",
			Name:      "confidence",
			Help:      "Distribution of answer confidence scores.",
			Buckets:   []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"service", "endpoint"},
	)
	lowConfidence := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalrag",
			Subsystem: "query",
			Name:      "low_confidence_total",
			Help:      "Total answers flagged as low confidence.",
		},
		[]string{"service", "endpoint"},
	)
	noResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalrag",
			Subsystem: "query",
			Name:      "no_results_total",
			Help:      "Total queries that retrieved no chunks.",
		},
		[]string{"service", "endpoint"},
	)
	safetyFlagTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalrag",
			Subsystem: "query",
			Name:      "safety_flags_total",
			Help:      "Total safety flags attached to answers, by flag.",
		},
		[]string{"service", "flag"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryTotal,
		queryDuration,
		queryChunks,
		queryConfidence,
		lowConfidence,
		noResultsTotal,
		safetyFlagTotal,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		queryTotal:      queryTotal,
		queryDuration:   queryDuration,
		queryChunks:     queryChunks,
		queryConfidence: queryConfidence,
		lowConfidence:   lowConfidence,
		noResultsTotal:  noResultsTotal,
		safetyFlagTotal: safetyFlagTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// RecordQuery captures the retrieval and confidence outcome of one answered
// query.
func (m *HTTPServerMetrics) RecordQuery(service, endpoint string, chunkCount int, confidence float64, lowConfidence bool, safetyFlags []string, duration time.Duration) {
	m.queryTotal.WithLabelValues(service, endpoint).Inc()
	m.queryDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
	m.queryChunks.WithLabelValues(service, endpoint).Observe(float64(chunkCount))
	m.queryConfidence.WithLabelValues(service, endpoint).Observe(confidence)

	if chunkCount == 0 {
		m.noResultsTotal.WithLabelValues(service, endpoint).Inc()
	}
	if lowConfidence {
		m.lowConfidence.WithLabelValues(service, endpoint).Inc()
	}
	for _, flag := range safetyFlags {
		m.safetyFlagTotal.WithLabelValues(service, flag).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
