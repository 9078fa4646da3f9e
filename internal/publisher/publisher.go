// Package publisher drains the offline buffer through the active transport.
// Draining stops on the first delivery failure so no snapshot is ever
// delivered out of order relative to an earlier one still in the buffer;
// whatever remains is retried on the next publish cycle.
package publisher

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/buffer"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/transport"
)

// failoverThreshold is how many consecutive cycles may fail without a single
// delivery before the transport is reported failed. Covers the broker that
// accepts connections but never acknowledges, which link probes cannot see.
const failoverThreshold = 3

// Publisher serializes snapshots and delivers them via the transport
// manager's active session.
type Publisher struct {
	buf      *buffer.Ring
	mgr      *transport.Manager
	topics   transport.Topics
	deviceID string
	version  string

	// failedCycles counts consecutive cycles where every delivery failed.
	failedCycles int

	// feed is invoked before blocking session bring-up.
	feed   func()
	logger *zap.Logger
}

// New creates a publisher over the given buffer and transport manager.
func New(buf *buffer.Ring, mgr *transport.Manager, topics transport.Topics, deviceID, version string, logger *zap.Logger) *Publisher {
	return &Publisher{
		buf:      buf,
		mgr:      mgr,
		topics:   topics,
		deviceID: deviceID,
		version:  version,
		feed:     func() {},
		logger:   logger,
	}
}

// OnBeforeBlocking registers a callback invoked right before blocking
// session bring-up (used to feed the watchdog).
func (p *Publisher) OnBeforeBlocking(fn func()) {
	if fn != nil {
		p.feed = fn
	}
}

// Cycle runs one publish pass: ensure a transport, connect the session if
// needed, then drain the buffer in order. Transport is brought up even when
// the buffer is empty so the retained online status stays current. A missing
// transport skips the cycle; the buffer keeps accepting inserts.
func (p *Publisher) Cycle(ctx context.Context, now time.Time) {
	sess, err := p.mgr.Ensure(ctx, now)
	if err != nil {
		if errors.Is(err, transport.ErrNoTransport) {
			p.logger.Debug("No transport available, publish skipped",
				zap.Int("buffered", p.buf.Len()))
			return
		}
		p.logger.Warn("Transport selection failed", zap.Error(err))
		return
	}

	if !sess.Connected() {
		p.feed()
		if err := sess.Connect(ctx); err != nil {
			p.logger.Warn("Publish session connect failed", zap.Error(err))
			p.mgr.ReportFailure()
			return
		}
	}

	if p.buf.Len() == 0 {
		return
	}

	published, failed := p.drain(sess)
	if published > 0 {
		p.logger.Info("Publish cycle complete",
			zap.Int("published", published),
			zap.Int("remaining", p.buf.Len()),
			zap.Stringer("path", p.mgr.Active()))
	}

	// The link can look healthy while the broker drops every ack. After
	// enough fully failed cycles, declare the path bad so the manager can
	// try the other one.
	if failed && published == 0 {
		p.failedCycles++
		if p.failedCycles >= failoverThreshold {
			p.logger.Warn("Repeated delivery failures, reporting transport failure",
				zap.Int("cycles", p.failedCycles),
				zap.Stringer("path", p.mgr.Active()))
			p.mgr.ReportFailure()
			p.failedCycles = 0
		}
	} else {
		p.failedCycles = 0
	}
}

// drain delivers buffered snapshots oldest-first, committing each one only
// after the broker acknowledges it. It stops at the first failure and
// reports whether one occurred.
func (p *Publisher) drain(sess transport.Session) (int, bool) {
	published := 0
	for p.buf.Len() > 0 {
		snap, err := p.buf.PeekOldest()
		if err != nil {
			break
		}

		payload, err := BuildPayload(snap, p.deviceID, p.version)
		if err != nil {
			// A snapshot that cannot be serialized can never be delivered;
			// drop it rather than wedging the queue.
			p.logger.Error("Snapshot serialization failed, dropping", zap.Error(err))
			p.buf.Commit()
			continue
		}

		if err := sess.Publish(p.topics.Data(), payload, false); err != nil {
			p.logger.Warn("Delivery failed, stopping drain to preserve order",
				zap.Int("published", published),
				zap.Int("remaining", p.buf.Len()),
				zap.Error(err))
			return published, true
		}

		p.buf.Commit()
		published++
	}
	return published, false
}
