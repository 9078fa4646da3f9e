// Package buffer provides the bounded FIFO store for snapshots awaiting
// delivery. When full, the oldest unsent snapshot is dropped and an overflow
// flag is raised; overflow is a loss signal, not an error that halts
// operation. The peek/commit split guarantees no snapshot is removed until
// its delivery is confirmed.
package buffer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// ErrEmpty is returned by PeekOldest and Commit when no snapshots are stored.
var ErrEmpty = errors.New("buffer empty")

// Ring is a fixed-capacity circular store of snapshots. It is touched only
// from the scheduler goroutine, so it carries no lock.
type Ring struct {
	items      []models.Snapshot
	head       int
	tail       int
	count      int
	overflowed bool
	logger     *zap.Logger
}

// New creates a ring with the given capacity.
func New(capacity int, logger *zap.Logger) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive (got %d)", capacity)
	}
	return &Ring{
		items:  make([]models.Snapshot, capacity),
		logger: logger,
	}, nil
}

// Insert stores a snapshot at the head. If the ring is full the oldest
// snapshot is dropped first and the overflow flag is set.
func (r *Ring) Insert(s models.Snapshot) {
	if r.count >= len(r.items) {
		r.overflowed = true
		r.tail = (r.tail + 1) % len(r.items)
		r.count--
		r.logger.Warn("Buffer overflow, oldest snapshot dropped",
			zap.Int("capacity", len(r.items)))
	}

	r.items[r.head] = s
	r.head = (r.head + 1) % len(r.items)
	r.count++
}

// PeekOldest returns the oldest stored snapshot without removing it.
func (r *Ring) PeekOldest() (models.Snapshot, error) {
	if r.count == 0 {
		return models.Snapshot{}, ErrEmpty
	}
	return r.items[r.tail], nil
}

// Commit removes the oldest snapshot. Call only after the peeked snapshot
// has been delivered.
func (r *Ring) Commit() error {
	if r.count == 0 {
		return ErrEmpty
	}
	r.tail = (r.tail + 1) % len(r.items)
	r.count--
	return nil
}

// Len returns the number of stored snapshots.
func (r *Ring) Len() int { return r.count }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.items) }

// Overflowed reports whether an insert has dropped data since the flag was
// last cleared.
func (r *Ring) Overflowed() bool { return r.overflowed }

// ClearOverflow resets the loss signal after it has been reported.
func (r *Ring) ClearOverflow() { r.overflowed = false }

// Status returns a short human-readable occupancy line for status replies.
func (r *Ring) Status() string {
	if r.overflowed {
		return fmt.Sprintf("Buffer: %d/%d (OVERFLOW)", r.count, len(r.items))
	}
	return fmt.Sprintf("Buffer: %d/%d", r.count, len(r.items))
}
