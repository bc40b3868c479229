package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// Index metrics
	InsertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explored",
		Subsystem: "index",
		Name:      "inserts_total",
		Help:      "Total fixes offered to the index by outcome",
	}, []string{"result"})

	Points = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "explored",
		Subsystem: "index",
		Name:      "points",
		Help:      "Explored points held in memory",
	})

	PendingPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "explored",
		Subsystem: "index",
		Name:      "pending_points",
		Help:      "Points inserted since the last successful flush",
	})

	HydrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explored",
		Subsystem: "index",
		Name:      "hydrations_total",
		Help:      "Hydration attempts from the persistent store by status",
	}, []string{"status"})

	// Flush metrics
	FlushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explored",
		Subsystem: "flush",
		Name:      "flushes_total",
		Help:      "Pending buffer writes to the persistent store by status",
	}, []string{"status"})

	FlushedPointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "explored",
		Subsystem: "flush",
		Name:      "points_total",
		Help:      "Points written to the persistent store",
	})

	FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "explored",
		Subsystem: "flush",
		Name:      "duration_seconds",
		Help:      "Duration of pending buffer writes",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})

	// Feed metrics
	FixesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explored",
		Subsystem: "feed",
		Name:      "fixes_received_total",
		Help:      "Fixes received from a location feed",
	}, []string{"source"})

	FixDecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explored",
		Subsystem: "feed",
		Name:      "decode_errors_total",
		Help:      "Feed payloads that could not be decoded into a fix",
	}, []string{"source"})

	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explored",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "explored",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})
)

// Middleware records request count and latency per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
