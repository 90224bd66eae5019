package core

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLoginMetrics_Observe(t *testing.T) {
	m := NewLoginMetrics(prometheus.NewRegistry())

	m.Observe(nil, 10*time.Millisecond)
	m.Observe(resourceConflict("x"), time.Millisecond)
	m.Observe(resourceConflict("x"), time.Millisecond)
	m.Observe(ErrStoreUnavailable, time.Millisecond)
	m.Observe(errors.New("boom"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration, "faculty_auth_login_duration_seconds"))
}

func TestLoginMetrics_NilIsNoop(t *testing.T) {
	var m *LoginMetrics
	assert.NotPanics(t, func() { m.Observe(nil, time.Second) })
}
