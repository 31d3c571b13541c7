// internal/http/metrics.go
package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP request instruments.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	requestDur    *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// NewMetrics registers the HTTP instruments on the default registry. Safe to
// call more than once; the same instruments are returned.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "knowledged_http_requests_total",
				Help: "HTTP requests by method, route and status code.",
			}, []string{"method", "route", "status"}),
			requestDur: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "knowledged_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by method and route.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"method", "route"}),
		}
	})
	return metricsInst
}

// Middleware records one observation per completed request. Routes are the
// registered templates (/api/v1/projects/:id), keeping label cardinality
// bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// The error handler runs after this middleware; report the
				// status it will write.
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			method := c.Request().Method
			m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.requestDur.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
