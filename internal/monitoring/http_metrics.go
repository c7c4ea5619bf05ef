package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests no route matched, which keeps probes for
// random paths from creating new series.
const unmatchedRoute = "unmatched"

// HTTPMetrics measures the requests served by the API, labelled by route
// template rather than raw path.
type HTTPMetrics struct {
	duration     *prometheus.HistogramVec
	requests     *prometheus.CounterVec
	responseSize *prometheus.HistogramVec
	inFlight     prometheus.Gauge
}

func NewHTTPMetrics() *HTTPMetrics {
	labels := []string{"method", "route", "code"}

	return &HTTPMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "drain_watcher_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
			// scans wait on the explorer, so the upper buckets matter
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, labels),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drain_watcher_http_requests_total",
			Help: "Total number of HTTP requests",
		}, labels),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drain_watcher_http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes",
			Buckets: prometheus.ExponentialBuckets(128, 4, 7),
		}, labels),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "drain_watcher_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		}),
	}
}

func (m *HTTPMetrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.duration, m.requests, m.responseSize, m.inFlight)
}

func (m *HTTPMetrics) observe(method, route string, code int, size int, elapsed time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"code":   strconv.Itoa(code),
	}
	m.requests.With(labels).Inc()
	m.duration.With(labels).Observe(elapsed.Seconds())
	if size > 0 {
		m.responseSize.With(labels).Observe(float64(size))
	}
}

// HTTPMetricsMiddleware records every request handled by the engine.
func HTTPMetricsMiddleware(metrics *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.inFlight.Inc()
		defer metrics.inFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.observe(c.Request.Method, route, c.Writer.Status(), c.Writer.Size(), time.Since(start))
	}
}
