package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fastBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
	httpBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// Metrics is the scanner-service Prometheus surface. Every series carries a
// constant service label.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpInFlight     prometheus.Gauge
	kafkaPublished   *prometheus.CounterVec
	kafkaDuration    *prometheus.HistogramVec
	mongoOperations  *prometheus.CounterVec
	mongoDuration    *prometheus.HistogramVec
	tokensCaptured   *prometheus.CounterVec
	scanOutcomes     *prometheus.CounterVec
	reconcileLatency *prometheus.HistogramVec
	activeSessions   prometheus.Gauge
	validations      *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
	breakerTrips     *prometheus.CounterVec
}

type Config struct {
	ServiceName string
	Namespace   string
}

func DefaultConfig(serviceName string) *Config {
	return &Config{ServiceName: serviceName, Namespace: "wms"}
}

// New registers every collector on a private registry alongside the Go and process collectors
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := factory{
		registerer: prometheus.WrapRegistererWith(prometheus.Labels{"service": config.ServiceName}, registry),
		namespace:  config.Namespace,
	}

	return &Metrics{
		registry: registry,

		httpRequests: f.counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		httpDuration: f.histogram("http_request_duration_seconds", "HTTP request duration in seconds", httpBuckets, "method", "path"),
		httpInFlight: f.gauge("http_requests_in_flight", "Number of HTTP requests currently being processed"),

		kafkaPublished: f.counter("kafka_events_published_total", "Total number of Kafka events published", "topic", "event_type", "status"),
		kafkaDuration:  f.histogram("kafka_publish_duration_seconds", "Kafka publish duration in seconds", fastBuckets, "topic"),

		mongoOperations: f.counter("mongodb_operations_total", "Total number of MongoDB operations", "collection", "operation", "status"),
		mongoDuration:   f.histogram("mongodb_operation_duration_seconds", "MongoDB operation duration in seconds", fastBuckets, "collection", "operation"),

		tokensCaptured:   f.counter("scanner_tokens_captured_total", "Barcode tokens accepted for resolution", "source"),
		scanOutcomes:     f.counter("scanner_scan_outcomes_total", "Scan outcomes by kind", "outcome"),
		reconcileLatency: f.histogram("scanner_reconciliation_duration_seconds", "Duration of a full reconciliation refresh in seconds", fastBuckets, "status"),
		activeSessions:   f.gauge("scanner_active_sessions", "Number of open scan sessions"),
		validations:      f.counter("scanner_validations_total", "Operation finalize attempts", "status"),

		breakerState: f.gaugeVec("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)", "name"),
		breakerTrips: f.counter("circuit_breaker_trips_total", "Total number of circuit breaker trips", "name"),
	}
}

type factory struct {
	registerer prometheus.Registerer
	namespace  string
}

func (f factory) counter(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: f.namespace, Name: name, Help: help}, labels)
	f.registerer.MustRegister(c)
	return c
}

func (f factory) histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: f.namespace, Name: name, Help: help, Buckets: buckets}, labels)
	f.registerer.MustRegister(h)
	return h
}

func (f factory) gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: f.namespace, Name: name, Help: help})
	f.registerer.MustRegister(g)
	return g
}

func (f factory) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: f.namespace, Name: name, Help: help}, labels)
	f.registerer.MustRegister(g)
	return g
}

// Handler serves the registry in OpenMetrics format when the scraper asks for it
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() { m.httpInFlight.Inc() }
func (m *Metrics) DecrementHTTPRequestsInFlight() { m.httpInFlight.Dec() }

func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.kafkaPublished.WithLabelValues(topic, eventType, statusLabel(success)).Inc()
	m.kafkaDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.mongoOperations.WithLabelValues(collection, operation, statusLabel(success)).Inc()
	m.mongoDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// RecordTokenCaptured counts a token handed to the router, by source (keyboard, camera)
func (m *Metrics) RecordTokenCaptured(source string) {
	m.tokensCaptured.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordScanOutcome(outcome string) {
	m.scanOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordReconciliation(success bool, duration time.Duration) {
	m.reconcileLatency.WithLabelValues(statusLabel(success)).Observe(duration.Seconds())
}

func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

// RecordValidation counts a finalize attempt
func (m *Metrics) RecordValidation(success bool) {
	m.validations.WithLabelValues(statusLabel(success)).Inc()
}

// SetCircuitBreakerState and RecordCircuitBreakerTrip satisfy resilience.StateObserver
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.breakerTrips.WithLabelValues(name).Inc()
}
