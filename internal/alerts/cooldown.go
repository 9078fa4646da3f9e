package alerts

import (
	"strings"
	"time"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// CooldownTable rate-limits notifications per alert condition. The active
// flag tracks whether a condition is currently true and is cleared when the
// condition returns to Ok; the notification timestamp deliberately is NOT
// cleared with it, so a condition that flaps in and out of Critical still
// waits out the window started by its previous notification.
type CooldownTable struct {
	window time.Duration
	last   [models.AlertKindCount]time.Time
	active [models.AlertKindCount]bool
}

// NewCooldownTable creates a table with the given cooldown window.
func NewCooldownTable(window time.Duration) *CooldownTable {
	return &CooldownTable{window: window}
}

// CanNotify reports whether a notification for the condition is due. A clock
// that moved behind the stored timestamp counts as an expired cooldown and
// the stored timestamp is discarded.
func (t *CooldownTable) CanNotify(kind models.AlertKind, now time.Time) bool {
	last := t.last[kind]
	if last.IsZero() {
		return true
	}
	if now.Before(last) {
		t.last[kind] = time.Time{}
		return true
	}
	return now.Sub(last) >= t.window
}

// RecordNotified marks a successfully delivered notification.
func (t *CooldownTable) RecordNotified(kind models.AlertKind, now time.Time) {
	t.last[kind] = now
	t.active[kind] = true
}

// ClearActive marks the condition as no longer true. The notification
// timestamp is kept.
func (t *CooldownTable) ClearActive(kind models.AlertKind) {
	t.active[kind] = false
}

// Active reports whether the condition is currently flagged.
func (t *CooldownTable) Active(kind models.AlertKind) bool {
	return t.active[kind]
}

// Summary returns a one-line listing of active conditions for status replies.
func (t *CooldownTable) Summary() string {
	var names []string
	for k := models.AlertKind(0); k < models.AlertKindCount; k++ {
		if t.active[k] {
			names = append(names, k.String())
		}
	}
	if len(names) == 0 {
		return "No active alerts"
	}
	return "Active alerts: " + strings.Join(names, ", ")
}
