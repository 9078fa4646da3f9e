// Package command parses and executes operator texts. The vocabulary is
// deliberately tiny: STATUS returns a fresh reading summary, RESET restarts
// the process, anything else gets a help message. Only the admin number is
// obeyed.
package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/buffer"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/sms"
)

// Kind is the parsed command type.
type Kind int

const (
	KindStatus Kind = iota
	KindReset
	KindUnknown
)

// helpText is the reply to anything outside the vocabulary.
const helpText = "Commands: STATUS (current readings), RESET (restart device)"

// Parse maps message text onto the command vocabulary, case-insensitively.
func Parse(content string) Kind {
	switch strings.ToUpper(strings.TrimSpace(content)) {
	case "STATUS", "STAT":
		return KindStatus
	case "RESET", "REBOOT", "RESTART":
		return KindReset
	}
	return KindUnknown
}

// AlertSummarizer reports the currently active alert conditions.
type AlertSummarizer interface {
	ActiveSummary() string
}

// SnapshotSource produces a fresh snapshot on demand.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// Handler polls the channel for commands and executes them within the same
// scheduler tick.
type Handler struct {
	ch     sms.Channel
	source SnapshotSource
	buf    *buffer.Ring
	alerts AlertSummarizer
	admin  string
	logger *zap.Logger

	// restart and sleep are injectable so RESET is testable.
	restart func()
	sleep   func(time.Duration)
}

// NewHandler creates a command handler. restart performs the full process
// restart for RESET; pass nil for the default (process exit, leaving the
// supervisor to relaunch).
func NewHandler(ch sms.Channel, source SnapshotSource, buf *buffer.Ring, alerts AlertSummarizer, adminNumber string, restart func(), logger *zap.Logger) *Handler {
	return &Handler{
		ch:      ch,
		source:  source,
		buf:     buf,
		alerts:  alerts,
		admin:   adminNumber,
		logger:  logger,
		restart: restart,
		sleep:   time.Sleep,
	}
}

// Poll checks for one incoming command and executes it.
func (h *Handler) Poll() {
	msg, err := h.ch.CheckIncoming()
	if err != nil {
		h.logger.Warn("Command poll failed", zap.Error(err))
		return
	}
	if msg == nil {
		return
	}

	if msg.Sender != h.admin {
		h.logger.Warn("Command from unauthorized sender ignored",
			zap.String("sender", msg.Sender))
		return
	}

	kind := Parse(msg.Content)
	h.logger.Info("Command received",
		zap.String("sender", msg.Sender),
		zap.String("content", msg.Content))

	switch kind {
	case KindStatus:
		h.reply(h.statusReply())
	case KindReset:
		h.reply("Restarting device...")
		// Give the carrier a moment to take the confirmation before the
		// process goes away.
		h.sleep(2 * time.Second)
		h.logger.Warn("Restart requested by operator")
		h.restart()
	case KindUnknown:
		h.reply(helpText)
	}
}

func (h *Handler) reply(body string) {
	if err := h.ch.Send(h.admin, body); err != nil {
		h.logger.Error("Command reply failed", zap.Error(err))
	}
}

// statusReply acquires a fresh snapshot and formats the multi-line status
// text: readings, buffer occupancy, active alerts, host uptime.
func (h *Handler) statusReply() string {
	snap := h.source.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "Heat Pump Status\n")
	fmt.Fprintf(&b, "Temps(C):\n In:%.1f Out:%.1f\n Amb:%.1f Comp:%.1f\n",
		snap.TempInlet.Value, snap.TempOutlet.Value,
		snap.TempAmbient.Value, snap.TempCompressor.Value)
	fmt.Fprintf(&b, "Elec: %.0fV %.1fA %.0fW\n",
		snap.Voltage.Value, snap.Current.Value, snap.Power)
	fmt.Fprintf(&b, "Press(PSI): Hi:%.0f Lo:%.0f\n",
		snap.PressureHigh.Value, snap.PressureLow.Value)
	fmt.Fprintf(&b, "Comp:%s\n", onOff(snap.CompressorRunning))
	fmt.Fprintf(&b, "%s\n%s", h.buf.Status(), h.alerts.ActiveSummary())

	if up, err := host.Uptime(); err == nil {
		fmt.Fprintf(&b, "\nUptime: %s", (time.Duration(up) * time.Second).String())
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
