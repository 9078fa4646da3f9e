// Package diag exposes a small on-device diagnostics surface: an in-memory
// log ring and an HTTP viewer for reading it without serial access.
package diag

import "sync"

// LogRing keeps the most recent log output in a fixed byte ring. The head
// counts total bytes ever written, so readers can poll with an absolute
// position and detect how much they missed after falling behind.
//
// LogRing implements zapcore.WriteSyncer and may be written from any
// goroutine.
type LogRing struct {
	mu   sync.Mutex
	buf  []byte
	head uint64
}

// NewLogRing creates a ring holding the last size bytes of log output.
func NewLogRing(size int) *LogRing {
	if size < 1024 {
		size = 1024
	}
	return &LogRing{buf: make([]byte, size)}
}

func (r *LogRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(p)
	// Only the tail of an oversized write can survive anyway.
	if n > len(r.buf) {
		r.head += uint64(n - len(r.buf))
		p = p[n-len(r.buf):]
	}
	pos := int(r.head % uint64(len(r.buf)))
	copied := copy(r.buf[pos:], p)
	copy(r.buf, p[copied:])
	r.head += uint64(len(p))
	return n, nil
}

// Sync satisfies zapcore.WriteSyncer.
func (r *LogRing) Sync() error { return nil }

// Head returns the total number of bytes ever written.
func (r *LogRing) Head() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.head
}

// ReadFrom returns up to max bytes starting at absolute position pos, plus
// the position to resume from. A pos older than the retained window is
// clamped forward to the oldest available byte.
func (r *LogRing) ReadFrom(pos uint64, max int) ([]byte, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := uint64(len(r.buf))
	oldest := uint64(0)
	if r.head > size {
		oldest = r.head - size
	}
	if pos < oldest {
		pos = oldest
	}
	if pos >= r.head {
		return nil, r.head
	}

	avail := r.head - pos
	if max > 0 && uint64(max) < avail {
		avail = uint64(max)
	}

	out := make([]byte, avail)
	for i := uint64(0); i < avail; i++ {
		out[i] = r.buf[(pos+i)%size]
	}
	return out, pos + avail
}
