package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eduquest_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route, method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "code"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eduquest_login_attempts_total",
		Help: "Login attempts by portal and result.",
	}, []string{"user_type", "result"})

	guardRedirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eduquest_guard_redirects_total",
		Help: "Protected requests sent back to a login page, by portal and reason.",
	}, []string{"user_type", "reason"})

	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eduquest_registrations_total",
		Help: "Registration form submissions by email delivery result.",
	}, []string{"delivered"})
)

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)

		code := ctx.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
		}
		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(route, ctx.Request().Method, strconv.Itoa(code)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
