package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/supportdesk/internal/observability"
	"go.uber.org/zap"
)

func TestSchedulerRunsSweepsOnTicks(t *testing.T) {
	mock := clock.NewMock()
	metrics := observability.NewMetrics()
	sched := New(10*time.Minute, 30*time.Second, mock, zap.NewNop(), metrics)

	var runs atomic.Int64
	sched.Register("counter", func(context.Context, time.Time) (int, error) {
		runs.Add(1)
		return 0, nil
	})

	sched.Start(context.Background())
	defer sched.Stop()

	assert.Equal(t, int64(0), runs.Load())

	mock.Add(30 * time.Second)
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Give the loop a moment to arm its ticker before advancing further.
	time.Sleep(10 * time.Millisecond)
	mock.Add(10 * time.Minute)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)

	mock.Add(20 * time.Minute)
	require.Eventually(t, func() bool { return runs.Load() == 4 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerIsolatesFailingSweep(t *testing.T) {
	mock := clock.NewMock()
	metrics := observability.NewMetrics()
	sched := New(time.Minute, 0, mock, zap.NewNop(), metrics)

	var healthyRuns atomic.Int64
	sched.Register("broken", func(context.Context, time.Time) (int, error) {
		return 0, errors.New("boom")
	})
	sched.Register("healthy", func(context.Context, time.Time) (int, error) {
		healthyRuns.Add(1)
		return 1, nil
	})

	sched.RunAll(context.Background())
	sched.RunAll(context.Background())

	assert.Equal(t, int64(2), healthyRuns.Load())
	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot["sweep_errors"]["broken"])
	assert.Equal(t, int64(2), snapshot["sweeps"]["healthy"])
}

func TestSchedulerStopHaltsTicks(t *testing.T) {
	mock := clock.NewMock()
	sched := New(time.Minute, 0, mock, zap.NewNop(), observability.NewMetrics())

	var runs atomic.Int64
	sched.Register("counter", func(context.Context, time.Time) (int, error) {
		runs.Add(1)
		return 0, nil
	})

	sched.Start(context.Background())
	mock.Add(time.Minute)
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 5*time.Millisecond)

	sched.Stop()
	seen := runs.Load()
	mock.Add(5 * time.Minute)
	assert.Equal(t, seen, runs.Load())
}

func TestSchedulerStopWithoutStartReturns(t *testing.T) {
	sched := New(time.Minute, 0, clock.NewMock(), zap.NewNop(), observability.NewMetrics())

	finished := make(chan struct{})
	go func() {
		sched.Stop()
		sched.Stop()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a prior Start")
	}
}
