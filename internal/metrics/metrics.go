// Package metrics exposes the Prometheus collectors used by the API.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"seva-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application collectors. A nil *Metrics is valid and
// records nothing, which keeps handlers usable in tests.
type Metrics struct {
	Registry *prometheus.Registry

	LoginAttempts  *prometheus.CounterVec
	AuthRejections *prometheus.CounterVec
	Payments       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seva",
			Name:      "login_attempts_total",
			Help:      "Login attempts by user type and outcome.",
		}, []string{"user_type", "outcome"}),
		AuthRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seva",
			Name:      "auth_rejections_total",
			Help:      "Requests rejected by the access gate.",
		}, []string{"reason"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seva",
			Name:      "payments_recorded_total",
			Help:      "Payments recorded by mode.",
		}, []string{"mode"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seva",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LoginAttempts,
		m.AuthRejections,
		m.Payments,
		m.RequestLatency,
	)
	return m
}

func (m *Metrics) Login(userType, outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(userType, outcome).Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.AuthRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) PaymentRecorded(mode string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(mode).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// UnmatchedRoute labels requests no route matched.
const UnmatchedRoute = "unmatched"

// Middleware observes request latency. The route label is the matched route
// pattern, so ids in paths do not explode cardinality. Errors are resolved
// here because the central error handler runs after this returns.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = apperr.Status(err)
		}

		route := UnmatchedRoute
		var fe *fiber.Error
		if !errors.As(err, &fe) || fe.Code != fiber.StatusNotFound {
			route = utils.CopyString(c.Route().Path)
		}
		m.RequestLatency.
			WithLabelValues(utils.CopyString(c.Method()), route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
