// Package alerts classifies readings against configured thresholds and
// decides when a human notification is due. Notifications fire only at
// Critical severity and are rate-limited per condition by a cooldown table;
// Warning severity is recorded on the reading for telemetry but never
// notifies on its own.
package alerts

import (
	"fmt"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/config"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// CheckVoltage classifies a voltage reading. Voltage is directional: the
// returned kind says whether the excursion was high or low (meaningful only
// when severity is not Ok).
func CheckVoltage(v float64, t config.VoltageThresholds) (models.Severity, models.AlertKind) {
	if v >= t.High.Critical {
		return models.SeverityCritical, models.AlertVoltageHigh
	}
	if v >= t.High.Warning {
		return models.SeverityWarning, models.AlertVoltageHigh
	}
	if v <= t.Low.Critical {
		return models.SeverityCritical, models.AlertVoltageLow
	}
	if v <= t.Low.Warning {
		return models.SeverityWarning, models.AlertVoltageLow
	}
	return models.SeverityOk, models.AlertVoltageHigh
}

// checkAbove classifies a value where danger lies above the thresholds
// (compressor temperature, high-side pressure, current).
func checkAbove(v float64, b config.Band) models.Severity {
	if v >= b.Critical {
		return models.SeverityCritical
	}
	if v >= b.Warning {
		return models.SeverityWarning
	}
	return models.SeverityOk
}

// checkBelow classifies a value where danger lies below the thresholds
// (low-side pressure: a refrigerant leak drives it down).
func checkBelow(v float64, b config.Band) models.Severity {
	if v <= b.Critical {
		return models.SeverityCritical
	}
	if v <= b.Warning {
		return models.SeverityWarning
	}
	return models.SeverityOk
}

// CheckCompressorTemp classifies the compressor body temperature.
func CheckCompressorTemp(v float64, b config.Band) models.Severity { return checkAbove(v, b) }

// CheckPressureHigh classifies the high-side refrigerant pressure.
func CheckPressureHigh(v float64, b config.Band) models.Severity { return checkAbove(v, b) }

// CheckPressureLow classifies the low-side refrigerant pressure.
func CheckPressureLow(v float64, b config.Band) models.Severity { return checkBelow(v, b) }

// CheckCurrent classifies the compressor current draw.
func CheckCurrent(v float64, b config.Band) models.Severity { return checkAbove(v, b) }

// FormatMessage renders the operator notification text for an alert.
func FormatMessage(kind models.AlertKind, sev models.Severity, value float64, deviceID string) string {
	unit := ""
	precision := 1
	switch kind {
	case models.AlertVoltageHigh, models.AlertVoltageLow:
		unit = "V"
	case models.AlertCompressorTemp:
		unit = "C"
	case models.AlertPressureHigh, models.AlertPressureLow:
		unit = "PSI"
		precision = 0
	case models.AlertOvercurrent:
		unit = "A"
	}

	return fmt.Sprintf("ALERT: %s\nLevel: %s\nValue: %.*f %s\n\nDevice: %s",
		kind, sev, precision, value, unit, deviceID)
}
