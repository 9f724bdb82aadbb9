package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glowpost",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glowpost",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "glowpost",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	oauthConnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glowpost",
			Subsystem: "oauth",
			Name:      "connects_total",
			Help:      "OAuth connect callbacks by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	postsScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glowpost",
			Subsystem: "posts",
			Name:      "scheduled_total",
			Help:      "Posts accepted for scheduling.",
		},
		[]string{"platform"},
	)

	postTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glowpost",
			Subsystem: "posts",
			Name:      "transitions_total",
			Help:      "Posts moved into a terminal status.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		oauthConnects,
		postsScheduled,
		postTransitions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency for every route except
// /metrics. The path label is the matched route pattern, so ids do not
// explode the label set.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

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
		if path == "" || path == "/" && c.Path() != "/" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Method())

		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordConnect counts a finished OAuth callback.
func RecordConnect(platform string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	oauthConnects.WithLabelValues(platform, outcome).Inc()
}

func RecordScheduled(platform string) {
	postsScheduled.WithLabelValues(platform).Inc()
}

func RecordTransition(status string) {
	postTransitions.WithLabelValues(status).Inc()
}
