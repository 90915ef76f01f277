package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsImmediatelyAndPeriodically(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(nil)
	s.Every("sweep", 10*time.Millisecond, true, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestSchedulerKeepsRunningAfterFailure(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(nil)
	s.Every("flaky", 5*time.Millisecond, false, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	})

	s.Start(context.Background())
	defer s.Stop()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerIgnoresInvalidRegistration(t *testing.T) {
	s := NewScheduler(nil)
	s.Every("zero", 0, false, func(ctx context.Context) error { return nil })
	s.Every("negative", -time.Second, false, func(ctx context.Context) error { return nil })
	s.Every("nil", time.Second, true, nil)
	assert.Empty(t, s.entries)
}

func TestSchedulerZeroIntervalRunsOnceAtStart(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(nil)
	s.Every("startup-sweep", 0, true, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	assert.Equal(t, int32(1), runs.Load())
}
