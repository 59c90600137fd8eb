package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncPunch("IN", "recorded")
	m.IncPunch("IN", "recorded")
	m.IncExceptionCreated("LATE")
	m.IncExceptionDeleted("MISSED_PUNCH")
	m.ObserveSweep("stale_corrections", "ok", 3, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Punches.WithLabelValues("IN", "recorded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExceptionsCreated.WithLabelValues("LATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExceptionsDeleted.WithLabelValues("MISSED_PUNCH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("stale_corrections", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SweepActions.WithLabelValues("stale_corrections")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncPunch("OUT", "acknowledged")
		m.IncExceptionCreated("LATE")
		m.IncExceptionDeleted("SHORT_TIME")
		m.ObserveRecompute(time.Millisecond)
		m.ObserveSweep("job", "error", 0, time.Millisecond)
	})
}
