package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one registry. A nil *Metrics is a no-op,
// so services can be built without observability in tests.
type Metrics struct {
	reg            *prometheus.Registry
	lookups        *prometheus.CounterVec
	lookupLatency  *prometheus.HistogramVec
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	stockUpdates   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockfinder_lookups_total",
				Help: "Search and ranking lookups by answering source and outcome",
			},
			[]string{"op", "source", "outcome"},
		),
		lookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockfinder_lookup_duration_seconds",
				Help:    "Duration of search and ranking lookups in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "source"},
		),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockfinder_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockfinder_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		stockUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockfinder_stock_updates_total",
				Help: "Stock update messages consumed, by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(
		m.lookups, m.lookupLatency, m.requestCounter, m.requestLatency, m.stockUpdates,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Lookup records one search/ranking answer.
func (m *Metrics) Lookup(op, source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(op, source, outcome).Inc()
	m.lookupLatency.WithLabelValues(op, source).Observe(d.Seconds())
}

func (m *Metrics) StockUpdate(outcome string) {
	if m == nil {
		return
	}
	m.stockUpdates.WithLabelValues(outcome).Inc()
}

// Middleware counts requests by matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		m.requestCounter.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.requestLatency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}

// Gatherer is used by tests to read collected values.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }
