package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the
// enrollment workflow.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	formsOpened     prometheus.Counter
	formDecisions   *prometheus.CounterVec
	numberFallbacks prometheus.Counter
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits for scheme lookups",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses for scheme lookups",
	})

	formsOpened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollment_forms_opened_total",
		Help: "Total enrollment forms opened",
	})

	formDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_form_decisions_total",
		Help: "Workflow decisions grouped by resulting status",
	}, []string{"status"})

	numberFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "form_number_fallbacks_total",
		Help: "Form numbers issued through the fallback path",
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, formsOpened, formDecisions, numberFallbacks)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		formsOpened:     formsOpened,
		formDecisions:   formDecisions,
		numberFallbacks: numberFallbacks,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}

// RecordFormOpened counts an opened enrollment form.
func (s *MetricsService) RecordFormOpened() {
	s.formsOpened.Inc()
}

// RecordFormDecision counts a workflow decision by resulting status.
func (s *MetricsService) RecordFormDecision(status string) {
	s.formDecisions.WithLabelValues(status).Inc()
}

// RecordNumberingFallback counts a fallback form number issuance.
func (s *MetricsService) RecordNumberingFallback() {
	s.numberFallbacks.Inc()
}
