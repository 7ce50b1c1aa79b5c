package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

// MetricsManager holds the marketplace Prometheus metrics.
// All recording methods are safe to call on a nil receiver so usecases can run without metrics.
type MetricsManager struct {
	Registry                 *prometheus.Registry
	ListingsCreatedTotal     prometheus.Counter
	ListingsUpdatedTotal     prometheus.Counter
	ListingsDeletedTotal     prometheus.Counter
	BookmarksAddedTotal      prometheus.Counter
	AccountsDeletedTotal     prometheus.Counter
	OrphanImagesRemovedTotal prometheus.Counter
	APIErrorsTotal           *prometheus.CounterVec
	APILatency               *prometheus.HistogramVec
}

// NewMetricsManager creates the metrics on a private registry.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	m := &MetricsManager{
		Registry:                 registry,
		ListingsCreatedTotal:     counter("listings_created_total", "Total number of listings created."),
		ListingsUpdatedTotal:     counter("listings_updated_total", "Total number of listing updates, including sold toggles."),
		ListingsDeletedTotal:     counter("listings_deleted_total", "Total number of listings deleted."),
		BookmarksAddedTotal:      counter("bookmarks_added_total", "Total number of bookmarks added."),
		AccountsDeletedTotal:     counter("accounts_deleted_total", "Total number of accounts deleted."),
		OrphanImagesRemovedTotal: counter("orphan_images_removed_total", "Stored images removed by the reconciler."),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by method.",
		}, []string{"method", "error_type"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingsUpdatedTotal,
		m.ListingsDeletedTotal,
		m.BookmarksAddedTotal,
		m.AccountsDeletedTotal,
		m.OrphanImagesRemovedTotal,
		m.APIErrorsTotal,
		m.APILatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsManager) ListingCreated() {
	if m != nil {
		m.ListingsCreatedTotal.Inc()
	}
}

func (m *MetricsManager) ListingUpdated() {
	if m != nil {
		m.ListingsUpdatedTotal.Inc()
	}
}

func (m *MetricsManager) ListingDeleted() {
	if m != nil {
		m.ListingsDeletedTotal.Inc()
	}
}

func (m *MetricsManager) BookmarkAdded() {
	if m != nil {
		m.BookmarksAddedTotal.Inc()
	}
}

func (m *MetricsManager) AccountDeleted() {
	if m != nil {
		m.AccountsDeletedTotal.Inc()
	}
}

func (m *MetricsManager) OrphanImagesRemoved(n int) {
	if m != nil && n > 0 {
		m.OrphanImagesRemovedTotal.Add(float64(n))
	}
}

// ObserveRequest records latency and, for failed requests, an error sample.
func (m *MetricsManager) ObserveRequest(method string, seconds float64, errorType string) {
	if m == nil {
		return
	}
	m.APILatency.WithLabelValues(method).Observe(seconds)
	if errorType != "" {
		m.APIErrorsTotal.WithLabelValues(method, errorType).Inc()
	}
}

// NewMetricsServer returns the HTTP server exposing /metrics, or nil when port is empty.
func NewMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) *http.Server {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server configured", zap.String("port", port), zap.String("path", "/metrics"))
	return &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
}
