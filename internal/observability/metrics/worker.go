package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	ingestTotal    *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	ingestInFlight prometheus.Gauge
	chunksEmbedded *prometheus.CounterVec
	parseFailures  *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalrag",
			Subsystem: "worker",
			Name:      "ingest_runs_total",
			Help:      "Total ingestion runs by status.",
		},
		[]string{"service", "status"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legalrag",
			Subsystem: "worker",
			Name:      "ingest_duration_seconds",
			Help:      "Ingestion run duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	ingestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "legalrag",
			Subsystem: "worker",
			Name:      "ingest_in_flight",
			Help:      "Number of in-flight ingestion runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksEmbedded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalrag",
			Subsystem: "worker",
			Name:      "chunks_embedded_total",
			Help:      "Total chunks embedded and stored.",
		},
		[]string{"service"},
	)
	parseFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalrag",
			Subsystem: "worker",
			Name:      "parse_failures_total",
			Help:      "Total documents that failed to parse.",
		},
		[]string{"service"},
	)

	registry.MustRegister(ingestTotal, ingestDuration, ingestInFlight, chunksEmbedded, parseFailures)

	return &WorkerMetrics{
		registry:       registry,
		ingestTotal:    ingestTotal,
		ingestDuration: ingestDuration,
		ingestInFlight: ingestInFlight,
		chunksEmbedded: chunksEmbedded,
		parseFailures:  parseFailures,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartIngest() {
	m.ingestInFlight.Inc()
}

func (m *WorkerMetrics) FinishIngest(service string, duration time.Duration, err error) {
	m.ingestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.ingestTotal.WithLabelValues(service, status).Inc()
	m.ingestDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) AddChunksEmbedded(service string, n int) {
	if n <= 0 {
		return
	}
	m.chunksEmbedded.WithLabelValues(service).Add(float64(n))
}

func (m *WorkerMetrics) AddParseFailures(service string, n int) {
	if n <= 0 {
		return
	}
	m.parseFailures.WithLabelValues(service).Add(float64(n))
}
