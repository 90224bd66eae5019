package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LoginMetrics records login outcomes. A nil *LoginMetrics records nothing.
type LoginMetrics struct {
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewLoginMetrics creates the login collectors and registers them with reg.
func NewLoginMetrics(reg prometheus.Registerer) *LoginMetrics {
	m := &LoginMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faculty_auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "faculty_auth_login_duration_seconds",
			Help:    "Time spent validating credentials.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.attempts, m.duration)
	return m
}

// Observe records one attempt. A nil err counts as success.
func (m *LoginMetrics) Observe(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
