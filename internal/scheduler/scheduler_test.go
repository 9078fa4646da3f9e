package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestIntervalTimerFirstCallExpired(t *testing.T) {
	tm := &intervalTimer{interval: 10 * time.Second}
	if !tm.expired(time.Now()) {
		t.Fatal("fresh timer should be expired")
	}
}

func TestIntervalTimerRespectsInterval(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tm := &intervalTimer{interval: 10 * time.Second, last: base}

	if tm.expired(base.Add(9 * time.Second)) {
		t.Fatal("expired before interval elapsed")
	}
	if !tm.expired(base.Add(10 * time.Second)) {
		t.Fatal("not expired at exactly the interval")
	}
}

func TestIntervalTimerClockWraparound(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tm := &intervalTimer{interval: 10 * time.Second, last: base}

	// Clock moved backwards: treat as expired and reset the stored time.
	if !tm.expired(base.Add(-time.Hour)) {
		t.Fatal("should be expired when now precedes last fire")
	}
	if !tm.last.IsZero() {
		t.Fatal("wraparound should reset stored timestamp")
	}
}

func TestRunDueFiresTasksAtIntervals(t *testing.T) {
	logger := zap.NewNop()
	wd := NewWatchdog(time.Hour, func() {}, logger)

	var fast, slow int
	s := New(wd, 50*time.Millisecond, logger)
	s.Register(Task{Name: "fast", Interval: 10 * time.Second, Run: func(context.Context, time.Time) { fast++ }})
	s.Register(Task{Name: "slow", Interval: 60 * time.Second, Run: func(context.Context, time.Time) { slow++ }})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s.now = func() time.Time { return clock }

	ctx := context.Background()

	// First iteration fires everything.
	s.runDue(ctx)
	if fast != 1 || slow != 1 {
		t.Fatalf("first pass: fast=%d slow=%d, want 1/1", fast, slow)
	}

	clock = base.Add(10 * time.Second)
	s.runDue(ctx)
	if fast != 2 || slow != 1 {
		t.Fatalf("after 10s: fast=%d slow=%d, want 2/1", fast, slow)
	}

	clock = base.Add(60 * time.Second)
	s.runDue(ctx)
	if fast != 3 || slow != 2 {
		t.Fatalf("after 60s: fast=%d slow=%d, want 3/2", fast, slow)
	}
}

func TestRunDueFeedsWatchdog(t *testing.T) {
	logger := zap.NewNop()
	wd := NewWatchdog(time.Hour, func() {}, logger)
	s := New(wd, 50*time.Millisecond, logger)

	before := wd.lastFed.Load()
	time.Sleep(time.Millisecond)
	s.runDue(context.Background())
	if wd.lastFed.Load() <= before {
		t.Fatal("runDue did not feed the watchdog")
	}
}

func TestWatchdogStarvation(t *testing.T) {
	logger := zap.NewNop()
	var starved atomic.Bool
	wd := NewWatchdog(40*time.Millisecond, func() { starved.Store(true) }, logger)

	wd.Start()
	defer func() {
		if !starved.Load() {
			wd.Stop()
		}
	}()

	deadline := time.After(2 * time.Second)
	for !starved.Load() {
		select {
		case <-deadline:
			t.Fatal("watchdog never starved")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatchdogFedStaysQuiet(t *testing.T) {
	logger := zap.NewNop()
	var starved atomic.Bool
	wd := NewWatchdog(60*time.Millisecond, func() { starved.Store(true) }, logger)

	wd.Start()
	for i := 0; i < 10; i++ {
		wd.Feed()
		time.Sleep(20 * time.Millisecond)
	}
	wd.Stop()

	if starved.Load() {
		t.Fatal("watchdog starved despite regular feeding")
	}
}
