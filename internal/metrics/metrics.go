// Package metrics exposes Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "grant_portal",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grant_portal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grant_portal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	applicationsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grant_portal",
			Subsystem: "applications",
			Name:      "submitted_total",
			Help:      "Applications persisted, by resulting status and referral use.",
		},
		[]string{"status", "referral"},
	)

	referralChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grant_portal",
			Subsystem: "referrals",
			Name:      "checks_total",
			Help:      "Referral lookups by result.",
		},
		[]string{"result"},
	)

	grantsClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grant_portal",
			Subsystem: "jobs",
			Name:      "grants_closed_total",
			Help:      "Grants moved to closed by the deadline job.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		applicationsSubmitted,
		referralChecks,
		grantsClosed,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request metrics labelled by the echo route template so
// path parameters do not explode label cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == "/metrics" {
				return next(c)
			}
			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := strings.ToUpper(c.Request().Method)
			httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordApplication counts a persisted application.
func RecordApplication(status string, viaReferral bool) {
	applicationsSubmitted.WithLabelValues(status, strconv.FormatBool(viaReferral)).Inc()
}

// RecordReferralCheck counts a referral lookup.
func RecordReferralCheck(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	referralChecks.WithLabelValues(result).Inc()
}

// RecordGrantsClosed adds n to the closed-grants counter.
func RecordGrantsClosed(n int64) {
	if n > 0 {
		grantsClosed.Add(float64(n))
	}
}
