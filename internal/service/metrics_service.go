package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	drainedTotal    prometheus.Counter
	sentTotal       prometheus.Counter
}

// NewMetricsService registers the service's Prometheus collectors.
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

	drainedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_drained_total",
		Help: "Queued notification records drained",
	})

	sentTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_emails_sent_total",
		Help: "Notification emails delivered to unique recipients",
	})

	registry.MustRegister(requestDuration, requestTotal, drainedTotal, sentTotal)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		drainedTotal:    drainedTotal,
		sentTotal:       sentTotal,
	}
}

// Handler exposes the /metrics scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveRequest records one completed HTTP request.
func (m *MetricsService) ObserveRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// NotificationDrained records one drain pass.
func (m *MetricsService) NotificationDrained(processed, sent int) {
	m.drainedTotal.Add(float64(processed))
	m.sentTotal.Add(float64(sent))
}
