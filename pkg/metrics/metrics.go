package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeCoverUp = "cover_up"
)

var (
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_registrations_total",
		Help: "The total number of registration attempts",
	}, []string{"outcome"})

	AuthenticationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_authentications_total",
		Help: "The total number of authentication attempts",
	}, []string{"outcome"})

	ResetRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_reset_requests_total",
		Help: "The total number of forget-password requests",
	}, []string{"outcome"})

	ResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_password_resets_total",
		Help: "The total number of password reset attempts",
	}, []string{"outcome"})

	VerificationCodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_verification_codes_total",
		Help: "The total number of verification code requests",
	}, []string{"outcome"})

	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_email_verifications_total",
		Help: "The total number of email verification attempts",
	}, []string{"outcome"})

	// TokensSweptTotal counts reset tokens removed by the cleanup job.
	TokensSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "identity_reset_tokens_swept_total",
		Help: "The total number of expired reset tokens deleted",
	})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_notification_failures_total",
		Help: "The total number of notifications that could not be dispatched",
	}, []string{"template"})

	RateLimitExceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "identity_rate_limit_exceeded_total",
		Help: "The total number of rate limit exceeded events",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "identity_http_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Observe records one attempt on vec under outcome.
func Observe(vec *prometheus.CounterVec, outcome string) {
	vec.WithLabelValues(outcome).Inc()
}

// Middleware records request latency labelled by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
