package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	return New(time.UTC)
}

func TestRegisterComputesNextRun(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("sweep", "0 9 * * *", func(ctx context.Context) error { return nil }))

	status, ok := s.JobStatus("sweep")
	require.True(t, ok)
	assert.Equal(t, "sweep", status.Name)
	assert.Equal(t, "0 9 * * *", status.Schedule)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(time.Now()))
	assert.Zero(t, status.TotalRuns)
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := newTestScheduler(t)
	assert.Error(t, s.Register("bad", "not a cron spec", func(ctx context.Context) error { return nil }))
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	s := newTestScheduler(t)
	task := func(ctx context.Context) error { return nil }
	require.NoError(t, s.Register("sweep", "0 9 * * *", task))
	assert.Error(t, s.Register("sweep", "0 9 * * *", task))
}

func TestTriggerJobUpdatesCounters(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int64
	require.NoError(t, s.Register("sweep", "0 9 * * *", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	require.NoError(t, s.TriggerJob("sweep"))
	require.NoError(t, s.TriggerJob("sweep"))

	assert.Equal(t, int64(2), runs.Load())
	status, _ := s.JobStatus("sweep")
	assert.Equal(t, int64(2), status.TotalRuns)
	assert.Equal(t, int64(2), status.TotalSuccess)
	assert.Zero(t, status.TotalFailures)
	assert.NotNil(t, status.LastRun)
	assert.NotNil(t, status.LastSuccess)
	assert.Nil(t, status.LastFailure)
	assert.Empty(t, status.LastError)
	assert.False(t, status.IsRunning)
}

func TestTriggerJobRecordsFailure(t *testing.T) {
	s := newTestScheduler(t)
	fail := true
	require.NoError(t, s.Register("sweep", "0 9 * * *", func(ctx context.Context) error {
		if fail {
			return errors.New("mail transport down")
		}
		return nil
	}))

	assert.Error(t, s.TriggerJob("sweep"))
	status, _ := s.JobStatus("sweep")
	assert.Equal(t, int64(1), status.TotalFailures)
	assert.Equal(t, "mail transport down", status.LastError)
	assert.NotNil(t, status.LastFailure)

	// A later success clears the error but keeps the failure counters
	fail = false
	require.NoError(t, s.TriggerJob("sweep"))
	status, _ = s.JobStatus("sweep")
	assert.Equal(t, int64(2), status.TotalRuns)
	assert.Equal(t, int64(1), status.TotalFailures)
	assert.Equal(t, int64(1), status.TotalSuccess)
	assert.Empty(t, status.LastError)
}

func TestTriggerJobRecoversPanic(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("sweep", "0 9 * * *", func(ctx context.Context) error {
		panic("boom")
	}))

	err := s.TriggerJob("sweep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	status, _ := s.JobStatus("sweep")
	assert.Equal(t, int64(1), status.TotalFailures)
}

func TestTriggerUnknownJob(t *testing.T) {
	s := newTestScheduler(t)
	err := s.TriggerJob("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestStopStartJob(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("sweep", "0 9 * * *", func(ctx context.Context) error { return nil }))

	require.NoError(t, s.StopJob("sweep"))
	status, _ := s.JobStatus("sweep")
	assert.True(t, status.Stopped)
	assert.Nil(t, status.NextRun)

	// Manual triggers still work while the timer is detached
	require.NoError(t, s.TriggerJob("sweep"))

	require.NoError(t, s.StartJob("sweep"))
	status, _ = s.JobStatus("sweep")
	assert.False(t, status.Stopped)
	assert.NotNil(t, status.NextRun)

	assert.Error(t, s.StopJob("missing"))
}

func TestStopAllStartAll(t *testing.T) {
	s := newTestScheduler(t)
	task := func(ctx context.Context) error { return nil }
	require.NoError(t, s.Register("sweep", "0 9 * * *", task))
	require.NoError(t, s.Register("health", "0 2 * * 0", task))

	s.StopAll()
	for _, status := range s.Status() {
		assert.True(t, status.Stopped, "job %s should be stopped", status.Name)
	}

	s.StartAll()
	for _, status := range s.Status() {
		assert.False(t, status.Stopped, "job %s should be running", status.Name)
	}
}

func TestStatusOrder(t *testing.T) {
	s := newTestScheduler(t)
	task := func(ctx context.Context) error { return nil }
	require.NoError(t, s.Register("sweep", "0 9 * * *", task))
	require.NoError(t, s.Register("health", "0 2 * * 0", task))

	statuses := s.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, "sweep", statuses[0].Name)
	assert.Equal(t, "health", statuses[1].Name)
}

func TestStartIsIdempotent(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("sweep", "0 9 * * *", func(ctx context.Context) error { return nil }))

	s.Start()
	s.Start()
	<-s.Shutdown().Done()
}

func TestConcurrentTriggersSerialize(t *testing.T) {
	s := newTestScheduler(t)
	var concurrent, peak atomic.Int64
	require.NoError(t, s.Register("sweep", "0 9 * * *", func(ctx context.Context) error {
		cur := concurrent.Add(1)
		if cur > peak.Load() {
			peak.Store(cur)
		}
		time.Sleep(10 * time.Millisecond)
		concurrent.Add(-1)
		return nil
	}))

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			_ = s.TriggerJob("sweep")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	assert.Equal(t, int64(1), peak.Load(), "runs of one job must not overlap")
	status, _ := s.JobStatus("sweep")
	assert.Equal(t, int64(4), status.TotalRuns)
}
