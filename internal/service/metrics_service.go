package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// registry's domain counters.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	txDuration      prometheus.Observer

	teacherCreates      *prometheus.CounterVec
	duplicateCandidates prometheus.Counter
	ittTransitions      *prometheus.CounterVec
	outboxDispatches    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	txDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "store_transaction_duration_seconds",
		Help:    "Duration of entity store transactions",
		Buckets: prometheus.DefBuckets,
	})

	teacherCreates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "teacher_creates_total",
		Help: "Teacher create commands by outcome",
	}, []string{"outcome"})

	duplicateCandidates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_candidates_total",
		Help: "Duplicate candidates flagged during teacher creation",
	})

	ittTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itt_result_transitions_total",
		Help: "ITT outcome transitions by target result",
	}, []string{"result"})

	outboxDispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_dispatches_total",
		Help: "Outbox messages dispatched by status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, txDuration, teacherCreates, duplicateCandidates, ittTransitions, outboxDispatches, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		dbQueryDuration:     dbQueryDuration,
		txDuration:          txDuration,
		teacherCreates:      teacherCreates,
		duplicateCandidates: duplicateCandidates,
		ittTransitions:      ittTransitions,
		outboxDispatches:    outboxDispatches,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveStoreTransaction records the duration of an entity store transaction.
func (m *MetricsService) ObserveStoreTransaction(duration time.Duration) {
	if m == nil {
		return
	}
	m.txDuration.Observe(duration.Seconds())
}

// RecordTeacherCreate counts a create command by its outcome label.
func (m *MetricsService) RecordTeacherCreate(outcome string, candidates int) {
	if m == nil {
		return
	}
	m.teacherCreates.WithLabelValues(outcome).Inc()
	if candidates > 0 {
		m.duplicateCandidates.Add(float64(candidates))
	}
}

// RecordIttTransition counts a successful ITT outcome transition.
func (m *MetricsService) RecordIttTransition(result string) {
	if m == nil {
		return
	}
	m.ittTransitions.WithLabelValues(result).Inc()
}

// RecordOutboxDispatch counts an outbox dispatch attempt.
func (m *MetricsService) RecordOutboxDispatch(status string) {
	if m == nil {
		return
	}
	m.outboxDispatches.WithLabelValues(status).Inc()
}
