package metrics

import (
	"strconv"
	"time"

	"sapataria/core/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sapataria"

// Metrics groups the collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	StockMutations   *prometheus.CounterVec
	CatalogCreations *prometheus.CounterVec
	BatchRows        *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StockMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_mutations_total",
			Help:      "Stock ledger operations by operation and result kind",
		}, []string{"op", "result"}),
		CatalogCreations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_rows_created_total",
			Help:      "Reference, model and variant rows created on first reference",
		}, []string{"entity"}),
		BatchRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_rows_total",
			Help:      "Bulk reconciliation rows by adapter and outcome",
		}, []string{"adapter", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		m.StockMutations,
		m.CatalogCreations,
		m.BatchRows,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// ObserveStock counts one ledger operation; err decides the result label.
func (m *Metrics) ObserveStock(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = apperror.KindOf(err).String()
	}
	m.StockMutations.WithLabelValues(op, result).Inc()
}

// ObserveCreated counts a row created on first reference.
func (m *Metrics) ObserveCreated(entity string) {
	if m == nil {
		return
	}
	m.CatalogCreations.WithLabelValues(entity).Inc()
}

// ObserveRow counts one bulk row outcome.
func (m *Metrics) ObserveRow(adapter, outcome string) {
	if m == nil {
		return
	}
	m.BatchRows.WithLabelValues(adapter, outcome).Inc()
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		m.HTTPRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
