package scheduler

import (
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Watchdog recovers the device when the main loop stops feeding it. It runs
// a small checker goroutine; when the last feed is older than the timeout it
// calls onStarve, which by default logs and exits so the service supervisor
// relaunches the process.
type Watchdog struct {
	timeout  time.Duration
	lastFed  atomic.Int64 // unix nanos
	onStarve func()
	stop     chan struct{}
	done     chan struct{}
	logger   *zap.Logger
}

// NewWatchdog creates a watchdog with the given starvation timeout. A nil
// onStarve installs the default exit handler.
func NewWatchdog(timeout time.Duration, onStarve func(), logger *zap.Logger) *Watchdog {
	w := &Watchdog{
		timeout:  timeout,
		onStarve: onStarve,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger,
	}
	if w.onStarve == nil {
		w.onStarve = func() {
			logger.Error("Watchdog starved, forcing restart",
				zap.Duration("timeout", timeout))
			_ = logger.Sync()
			os.Exit(1)
		}
	}
	return w
}

// Feed marks the loop as alive. Safe to call from any goroutine.
func (w *Watchdog) Feed() {
	w.lastFed.Store(time.Now().UnixNano())
}

// Start launches the checker goroutine. The first feed happens implicitly
// so a slow startup does not trip the watchdog before the loop begins.
func (w *Watchdog) Start() {
	w.Feed()
	go w.run()
}

func (w *Watchdog) run() {
	defer close(w.done)

	interval := w.timeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			last := time.Unix(0, w.lastFed.Load())
			if time.Since(last) > w.timeout {
				w.onStarve()
				return
			}
		}
	}
}

// Stop halts the checker goroutine and waits for it to exit.
func (w *Watchdog) Stop() {
	close(w.stop)
	<-w.done
}
