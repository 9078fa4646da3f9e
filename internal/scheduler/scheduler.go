// Package scheduler implements the single-threaded cooperative driver: one
// loop, several independent interval timers, a watchdog fed every iteration.
// All pipeline state is touched only from this loop, so no component needs
// locking; correctness depends on tasks never re-entering one another.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Task is one periodic job. Run executes synchronously inside the loop;
// blocking work must stay within its bounded timeout or the watchdog
// recovers the device.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time)
}

// intervalTimer tracks when a task last fired. The expiry rule is
// wraparound-safe: a "last fired" ahead of now means the clock moved
// backwards, and the timer counts as expired rather than stalling until
// the clock catches up.
type intervalTimer struct {
	interval time.Duration
	last     time.Time
}

func (t *intervalTimer) expired(now time.Time) bool {
	if t.last.IsZero() {
		return true
	}
	if now.Before(t.last) {
		t.last = time.Time{}
		return true
	}
	return now.Sub(t.last) >= t.interval
}

// Scheduler drives all registered tasks from a single goroutine.
type Scheduler struct {
	tasks    []Task
	timers   []*intervalTimer
	watchdog *Watchdog
	tick     time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a scheduler that polls its timers at the given tick rate.
func New(watchdog *Watchdog, tick time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		watchdog: watchdog,
		tick:     tick,
		logger:   logger,
		now:      time.Now,
	}
}

// Register adds a periodic task. Tasks run in registration order when
// several expire on the same iteration.
func (s *Scheduler) Register(t Task) {
	s.tasks = append(s.tasks, t)
	s.timers = append(s.timers, &intervalTimer{interval: t.Interval})
	s.logger.Info("Registered task",
		zap.String("name", t.Name),
		zap.Duration("interval", t.Interval))
}

// runDue feeds the watchdog and runs every task whose interval has elapsed.
func (s *Scheduler) runDue(ctx context.Context) {
	s.watchdog.Feed()

	now := s.now()
	for i, task := range s.tasks {
		if !s.timers[i].expired(now) {
			continue
		}
		s.timers[i].last = now
		task.Run(ctx, now)
	}
}

// Start runs the loop until the context is cancelled. Every task fires once
// immediately on the first iteration.
func (s *Scheduler) Start(ctx context.Context) {
	s.watchdog.Start()
	defer s.watchdog.Stop()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.runDue(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}
