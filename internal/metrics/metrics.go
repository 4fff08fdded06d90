package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	diagnosesTotal    *prometheus.CounterVec
	diagnosisDuration prometheus.Histogram
	predictedTotal    *prometheus.CounterVec
	recordsTotal      *prometheus.CounterVec
	modelLoaded       prometheus.Gauge
}

func NewMetrics(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaf",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaf",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "leaf",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	diagnosesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaf",
			Subsystem: "diagnosis",
			Name:      "total",
			Help:      "Diagnoses by outcome (ok or error kind).",
		},
		[]string{"service", "outcome"},
	)
	diagnosisDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "leaf",
			Subsystem:   "diagnosis",
			Name:        "duration_seconds",
			Help:        "Time spent normalizing and classifying one image.",
			Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	predictedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaf",
			Subsystem: "diagnosis",
			Name:      "predicted_class_total",
			Help:      "Successful diagnoses by predicted class label.",
		},
		[]string{"service", "label"},
	)
	recordsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaf",
			Subsystem: "records",
			Name:      "appended_total",
			Help:      "Feedback and contact entries appended to the in-memory store.",
		},
		[]string{"service", "kind"},
	)
	modelLoaded := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "leaf",
			Subsystem:   "model",
			Name:        "loaded",
			Help:        "1 when the classifier model loaded successfully.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		diagnosesTotal,
		diagnosisDuration,
		predictedTotal,
		recordsTotal,
		modelLoaded,
	)

	return &Metrics{
		registry:          registry,
		service:           service,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		diagnosesTotal:    diagnosesTotal,
		diagnosisDuration: diagnosisDuration,
		predictedTotal:    predictedTotal,
		recordsTotal:      recordsTotal,
		modelLoaded:       modelLoaded,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		path := routeLabel(r)
		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routeLabel uses the ServeMux pattern the request matched. The mux sets it
// on the request it was handed, so it is only known after next has run.
// Requests no route matched share one label.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

// ObserveDiagnosis implements diagnosis.Observer.
func (m *Metrics) ObserveDiagnosis(outcome, label string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.diagnosesTotal.WithLabelValues(m.service, outcome).Inc()
	m.diagnosisDuration.Observe(duration.Seconds())
	if outcome == "ok" && label != "" {
		m.predictedTotal.WithLabelValues(m.service, label).Inc()
	}
}

func (m *Metrics) RecordAppended(kind string) {
	m.recordsTotal.WithLabelValues(m.service, kind).Inc()
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
		return
	}
	m.modelLoaded.Set(0)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
