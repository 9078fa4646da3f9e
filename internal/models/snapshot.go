// Package models defines the measurement data structures shared across the
// monitor: individual sensor readings, the per-cycle snapshot, and the alert
// enumerations used by the evaluator and the wire payload.
package models

import "time"

// Severity classifies how far a reading is from its normal operating range.
type Severity int

const (
	SeverityOk Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityOk:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// AlertKind identifies an alert condition type for cooldown tracking.
type AlertKind int

const (
	AlertVoltageHigh AlertKind = iota
	AlertVoltageLow
	AlertCompressorTemp
	AlertPressureHigh
	AlertPressureLow
	AlertOvercurrent

	// AlertKindCount sizes per-kind tables. Must stay last.
	AlertKindCount
)

// String returns the human-readable alert condition name.
func (k AlertKind) String() string {
	switch k {
	case AlertVoltageHigh:
		return "HIGH VOLTAGE"
	case AlertVoltageLow:
		return "LOW VOLTAGE"
	case AlertCompressorTemp:
		return "COMPRESSOR TEMP"
	case AlertPressureHigh:
		return "HIGH PRESSURE"
	case AlertPressureLow:
		return "LOW PRESSURE"
	case AlertOvercurrent:
		return "OVERCURRENT"
	}
	return "UNKNOWN"
}

// Reading is one physical measurement with its validity and alert state.
// When Valid is false the value is excluded from derived calculations and
// alert evaluation but still published for observability.
type Reading struct {
	Value     float64
	Valid     bool
	Severity  Severity
	Timestamp time.Time
}

// Snapshot is an atomic bundle of all measurements from one acquisition
// cycle. It is the unit that is evaluated, buffered, and published; it is
// never mutated after entering the offline buffer.
type Snapshot struct {
	TempInlet      Reading
	TempOutlet     Reading
	TempAmbient    Reading
	TempCompressor Reading

	Voltage Reading
	Current Reading
	// Power is voltage*current, computed only when both inputs are valid.
	Power float64

	PressureHigh Reading
	PressureLow  Reading

	CompressorRunning bool
	FanRunning        bool
	DefrostActive     bool

	CapturedAt time.Time
}
