// Package metrics exposes Prometheus collectors for the auth core and the HTTP edge.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"docket/internal/domain/entity"
	"docket/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docket"

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler serves reg in the text exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AuthMetrics counts credential and token outcomes.
type AuthMetrics struct {
	hashDuration    *prometheus.HistogramVec
	verifications   *prometheus.CounterVec
	tokensIssued    *prometheus.CounterVec
	tokenChecks     *prometheus.CounterVec
	tokenRejections *prometheus.CounterVec
}

// NewAuthMetrics registers the auth collectors on reg.
func NewAuthMetrics(reg *prometheus.Registry) (*AuthMetrics, error) {
	m := &AuthMetrics{
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "password",
			Name:      "hash_duration_seconds",
			Help:      "Time spent deriving password hashes.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "password",
			Name:      "verifications_total",
			Help:      "Password verifications by result.",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "issued_total",
			Help:      "Tokens issued by class.",
		}, []string{"class", "result"}),
		tokenChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "verifications_total",
			Help:      "Token verifications by expected class and result.",
		}, []string{"class", "result"}),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "rejections_total",
			Help:      "Rejected tokens by expected class and reason.",
		}, []string{"class", "reason"}),
	}

	for _, c := range []prometheus.Collector{m.hashDuration, m.verifications, m.tokensIssued, m.tokenChecks, m.tokenRejections} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register auth metrics")
		}
	}

	return m, nil
}

// ObserveTokenRejection records why a token was refused.
func (m *AuthMetrics) ObserveTokenRejection(class entity.TokenClass, reason string) {
	m.tokenRejections.WithLabelValues(class.String(), reason).Inc()
}

func (m *AuthMetrics) observeHash(operation string, elapsed time.Duration) {
	m.hashDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// HTTPMetrics records request counts and latencies per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors on reg.
func NewHTTPMetrics(reg *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register http metrics")
		}
	}

	return m, nil
}

// Middleware labels by the registered route pattern, never the raw path.
func (m *HTTPMetrics) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			} else if !c.Response().Committed {
				status = http.StatusInternalServerError
			}
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request().Method

		m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		return err
	}
}
