package alerts

import (
	"time"

	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/config"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// Notifier delivers a single alert to the operator. Implementations block
// with a bounded timeout and return an error on delivery failure.
type Notifier interface {
	Notify(kind models.AlertKind, sev models.Severity, value float64) error
}

// Evaluator runs all parameter checks against a snapshot, writes the
// resulting severities back into it, and sends notifications for Critical
// conditions whose cooldown has expired. Invalid readings are skipped
// entirely: their severity stays Ok and they neither trigger nor clear
// conditions.
type Evaluator struct {
	thresholds config.ThresholdConfig
	table      *CooldownTable
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

// NewEvaluator creates an evaluator with the given thresholds, cooldown
// window, and notifier.
func NewEvaluator(thresholds config.ThresholdConfig, cooldown time.Duration, notifier Notifier, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		table:      NewCooldownTable(cooldown),
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// CheckAll evaluates every monitored parameter in fixed order: voltage,
// compressor temperature, high-side pressure, low-side pressure, current.
func (e *Evaluator) CheckAll(snap *models.Snapshot) {
	if snap.Voltage.Valid {
		sev, kind := CheckVoltage(snap.Voltage.Value, e.thresholds.Voltage)
		snap.Voltage.Severity = sev
		if sev == models.SeverityOk {
			// Either direction may have been active.
			e.clear(models.AlertVoltageHigh)
			e.clear(models.AlertVoltageLow)
		} else {
			e.maybeNotify(kind, sev, snap.Voltage.Value)
		}
	}

	if snap.TempCompressor.Valid {
		sev := CheckCompressorTemp(snap.TempCompressor.Value, e.thresholds.CompressorTemp)
		snap.TempCompressor.Severity = sev
		e.settle(models.AlertCompressorTemp, sev, snap.TempCompressor.Value)
	}

	if snap.PressureHigh.Valid {
		sev := CheckPressureHigh(snap.PressureHigh.Value, e.thresholds.PressureHigh)
		snap.PressureHigh.Severity = sev
		e.settle(models.AlertPressureHigh, sev, snap.PressureHigh.Value)
	}

	if snap.PressureLow.Valid {
		sev := CheckPressureLow(snap.PressureLow.Value, e.thresholds.PressureLow)
		snap.PressureLow.Severity = sev
		e.settle(models.AlertPressureLow, sev, snap.PressureLow.Value)
	}

	if snap.Current.Valid {
		sev := CheckCurrent(snap.Current.Value, e.thresholds.Current)
		snap.Current.Severity = sev
		e.settle(models.AlertOvercurrent, sev, snap.Current.Value)
	}
}

// settle applies the standard transition for a single-kind parameter:
// notify on Critical, clear the active flag on Ok, do nothing on Warning.
func (e *Evaluator) settle(kind models.AlertKind, sev models.Severity, value float64) {
	switch sev {
	case models.SeverityCritical:
		e.maybeNotify(kind, sev, value)
	case models.SeverityOk:
		e.clear(kind)
	case models.SeverityWarning:
	}
}

// maybeNotify sends a notification when severity is Critical and the
// condition's cooldown has expired. The cooldown entry is updated only
// after the notifier reports success, so a failed send retries on the
// next cycle.
func (e *Evaluator) maybeNotify(kind models.AlertKind, sev models.Severity, value float64) {
	if sev != models.SeverityCritical {
		return
	}
	now := e.now()
	if !e.table.CanNotify(kind, now) {
		return
	}
	if err := e.notifier.Notify(kind, sev, value); err != nil {
		e.logger.Error("Alert notification failed",
			zap.Stringer("kind", kind),
			zap.Float64("value", value),
			zap.Error(err))
		return
	}
	e.table.RecordNotified(kind, now)
	e.logger.Warn("Alert notified",
		zap.Stringer("kind", kind),
		zap.Stringer("severity", sev),
		zap.Float64("value", value))
}

func (e *Evaluator) clear(kind models.AlertKind) {
	if e.table.Active(kind) {
		e.logger.Info("Alert cleared", zap.Stringer("kind", kind))
	}
	e.table.ClearActive(kind)
}

// ActiveSummary returns a one-line listing of active conditions.
func (e *Evaluator) ActiveSummary() string {
	return e.table.Summary()
}
