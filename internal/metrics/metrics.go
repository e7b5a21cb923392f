// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "librarian_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarian_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	// CoversStored counts cover payloads accepted by a storage strategy.
	CoversStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarian_covers_stored_total",
			Help: "Cover images accepted and stored",
		},
		[]string{"strategy"},
	)

	// CoversRejected counts cover payloads that never reached storage.
	CoversRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarian_covers_rejected_total",
			Help: "Cover images rejected at intake",
		},
		[]string{"strategy", "reason"},
	)

	// CoverCompensations counts compensating deletes of cover files.
	CoverCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarian_cover_compensations_total",
			Help: "Cover files deleted after the owning book failed to persist",
		},
		[]string{"result"},
	)

	// CoversSwept counts orphaned cover files removed by the sweep task.
	CoversSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "librarian_covers_swept_total",
			Help: "Orphaned cover files removed by the sweep",
		},
	)
)

// Registry is the registry served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestDuration,
		httpRequestsTotal,
		CoversStored,
		CoversRejected,
		CoverCompensations,
		CoversSwept,
	)
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
