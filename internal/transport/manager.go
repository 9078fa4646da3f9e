// Package transport owns connectivity to one of two independent network
// paths. The primary path is always preferred; the secondary is used only
// while the primary is unavailable, each with its own retry interval. At
// most one publish session exists at a time and a session never spans two
// paths: switching tears the old session down first.
package transport

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrNoTransport is returned when neither path is usable this cycle.
var ErrNoTransport = errors.New("no transport available")

// Path identifies which network path currently carries the publish session.
type Path int

const (
	PathNone Path = iota
	PathPrimary
	PathSecondary
)

// String returns the path name used in logs.
func (p Path) String() string {
	switch p {
	case PathPrimary:
		return "primary"
	case PathSecondary:
		return "secondary"
	}
	return "none"
}

// Link is one network path. Connect is a blocking, bounded bring-up attempt;
// Connected reports current reachability; Drop discards any cached
// connectivity state after a failure.
type Link interface {
	Name() string
	Connect(ctx context.Context) error
	Connected() bool
	Drop()
}

// Session is a publish session bound to exactly one link. Connect performs
// the authenticate/last-will/subscribe handshake.
type Session interface {
	Connect(ctx context.Context) error
	Connected() bool
	Publish(topic string, payload []byte, retained bool) error
	Close()
}

// SessionFactory creates a session for the given path. The manager calls it
// each time a session is bound, never reusing a session across rebinds.
type SessionFactory func(path Path) Session

// Manager runs the failover state machine. It is driven from the scheduler
// goroutine only.
type Manager struct {
	primary    Link
	secondary  Link
	newSession SessionFactory

	primaryRetry   time.Duration
	secondaryRetry time.Duration
	lastPrimary    time.Time
	lastSecondary  time.Time

	active  Path
	session Session

	// feed is invoked immediately before blocking bring-up calls so the
	// watchdog does not fire during a slow network attach.
	feed   func()
	logger *zap.Logger
}

// NewManager creates a transport manager over the two links.
func NewManager(primary, secondary Link, primaryRetry, secondaryRetry time.Duration, factory SessionFactory, logger *zap.Logger) *Manager {
	return &Manager{
		primary:        primary,
		secondary:      secondary,
		newSession:     factory,
		primaryRetry:   primaryRetry,
		secondaryRetry: secondaryRetry,
		active:         PathNone,
		feed:           func() {},
		logger:         logger,
	}
}

// OnBeforeBlocking registers a callback invoked right before any blocking
// network bring-up (used to feed the watchdog).
func (m *Manager) OnBeforeBlocking(fn func()) {
	if fn != nil {
		m.feed = fn
	}
}

// Active returns the path currently carrying the publish session.
func (m *Manager) Active() Path { return m.active }

// Ensure runs one pass of the failover state machine and returns the session
// bound to the selected path, or ErrNoTransport if neither path is usable.
func (m *Manager) Ensure(ctx context.Context, now time.Time) (Session, error) {
	// Primary wins whenever it is up. A reachability check can re-probe and
	// block as long as a connect attempt, so it is fed like one.
	m.feed()
	if m.primary.Connected() {
		m.bind(PathPrimary)
		return m.session, nil
	}
	if retryElapsed(now, m.lastPrimary, m.primaryRetry) {
		m.lastPrimary = now
		m.feed()
		if err := m.primary.Connect(ctx); err != nil {
			m.logger.Warn("Primary link attempt failed",
				zap.String("link", m.primary.Name()), zap.Error(err))
		} else {
			m.bind(PathPrimary)
			return m.session, nil
		}
	}

	m.feed()
	if m.secondary.Connected() {
		m.bind(PathSecondary)
		return m.session, nil
	}
	if retryElapsed(now, m.lastSecondary, m.secondaryRetry) {
		m.lastSecondary = now
		m.feed()
		if err := m.secondary.Connect(ctx); err != nil {
			m.logger.Warn("Secondary link attempt failed",
				zap.String("link", m.secondary.Name()), zap.Error(err))
		} else {
			m.bind(PathSecondary)
			return m.session, nil
		}
	}

	// Neither path usable: leave no session bound.
	m.teardown()
	return nil, ErrNoTransport
}

// ReportFailure discards the current session and the active link's cached
// connectivity after a publish-session level failure, forcing the next
// Ensure to re-evaluate from scratch.
func (m *Manager) ReportFailure() {
	switch m.active {
	case PathPrimary:
		m.primary.Drop()
	case PathSecondary:
		m.secondary.Drop()
	}
	m.teardown()
}

// Close tears down any live session, for shutdown.
func (m *Manager) Close() {
	m.teardown()
}

// bind ensures the session is attached to the given path, tearing down any
// session bound elsewhere first.
func (m *Manager) bind(p Path) {
	if m.active == p && m.session != nil {
		return
	}
	m.teardown()
	m.session = m.newSession(p)
	m.active = p
	m.logger.Info("Publish session bound", zap.Stringer("path", p))
}

func (m *Manager) teardown() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
		m.logger.Info("Publish session torn down", zap.Stringer("path", m.active))
	}
	m.active = PathNone
}

// retryElapsed applies the wraparound-safe retry rule: a zero last-attempt
// always allows a try, and a clock behind the stored timestamp counts as an
// elapsed interval rather than pushing the retry into the far future.
func retryElapsed(now, last time.Time, interval time.Duration) bool {
	if last.IsZero() {
		return true
	}
	if now.Before(last) {
		return true
	}
	return now.Sub(last) >= interval
}
