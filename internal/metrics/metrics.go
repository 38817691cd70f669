// Package metrics holds the Prometheus collectors of the service and the echo
// middleware that feeds the HTTP ones.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "case_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPLatency records handler latency by method and route.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "case_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// RequestTransitions counts lifecycle transitions by target status.
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "case_request_transitions_total",
		Help: "Total number of request lifecycle transitions by target status",
	}, []string{"status"})

	// ShortlistChanges counts shortlist mutations by operation (add, remove).
	ShortlistChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "case_shortlist_changes_total",
		Help: "Total number of shortlist additions and removals",
	}, []string{"operation"})

	// LogicalFailures counts calls answered with a user-facing failure message.
	LogicalFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "case_logical_failures_total",
		Help: "Total number of calls rejected with a logical failure",
	}, []string{"route"})

	// RequestViews counts recorded request views.
	RequestViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "case_request_views_total",
		Help: "Total number of recorded request views",
	})

	// CategoryCacheLookups counts category cache lookups by result (hit, miss).
	CategoryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "case_category_cache_lookups_total",
		Help: "Category cache lookups by result",
	}, []string{"result"})
)

// Middleware records HTTPRequests and HTTPLatency for every request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			HTTPLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()

			return nil
		}
	}
}
