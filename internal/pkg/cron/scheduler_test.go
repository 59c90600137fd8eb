package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-timekeeping-go/internal/pkg/metrics"
)

func newTestScheduler() (*Scheduler, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewScheduler(time.UTC, m, nil), m
}

func TestScheduler_AddJobRejectsBadSpec(t *testing.T) {
	s, _ := newTestScheduler()

	err := s.AddJob("broken", "every now and then", func(context.Context) (int, error) { return 0, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Empty(t, s.jobs)
}

func TestScheduler_RunOnceRecordsOutcomes(t *testing.T) {
	s, m := newTestScheduler()

	var order []string
	require.NoError(t, s.AddJob("first", "@every 1h", func(context.Context) (int, error) {
		order = append(order, "first")
		return 2, nil
	}))
	require.NoError(t, s.AddJob("second", "@every 1h", func(context.Context) (int, error) {
		order = append(order, "second")
		return 1, errors.New("one entity failed")
	}))

	s.RunOnce(context.Background())

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("first", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepActions.WithLabelValues("first")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("second", "error")))
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s, m := newTestScheduler()
	require.NoError(t, s.AddJob("explodes", "@every 1h", func(context.Context) (int, error) {
		panic("boom")
	}))

	assert.NotPanics(t, func() { s.RunOnce(context.Background()) })
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("explodes", "error")))
}

func TestScheduler_SweepsDoNotOverlap(t *testing.T) {
	s, _ := newTestScheduler()

	var running, peak atomic.Int32
	job := Job{Name: "slow", Fn: func(context.Context) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.execute(context.Background(), job)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestScheduler_StartStop(t *testing.T) {
	s, _ := newTestScheduler()
	require.NoError(t, s.AddJob("idle", "@every 1h", func(context.Context) (int, error) { return 0, nil }))

	s.Start()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Error(t, s.ctx.Err())
}
