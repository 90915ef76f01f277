package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a periodic unit of work.
type Task func(context.Context) error

// Scheduler runs registered tasks on fixed intervals.
type Scheduler struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries []entry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type entry struct {
	name      string
	interval  time.Duration
	immediate bool
	task      Task
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Every registers task to run each interval. With immediate set it also runs once at Start.
// A non-positive interval disables the periodic runs but keeps the start run.
// Registration after Start has no effect.
func (s *Scheduler) Every(name string, interval time.Duration, immediate bool, task Task) {
	if task == nil || (interval <= 0 && !immediate) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{name: name, interval: interval, immediate: immediate, task: task})
}

// Start launches one goroutine per task.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
}

// Stop cancels all tasks and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	defer s.wg.Done()
	if e.immediate {
		s.run(ctx, e)
	}
	if e.interval <= 0 {
		return
	}
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, e)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, e entry) {
	start := time.Now()
	if err := e.task(ctx); err != nil {
		s.logger.Warn("scheduled task failed", zap.String("task", e.name), zap.Error(err))
		return
	}
	s.logger.Debug("scheduled task finished", zap.String("task", e.name), zap.Duration("took", time.Since(start)))
}
