// Calibration math for the analog front end: thermistor temperature,
// AC RMS for voltage/current, and pressure transducer interpolation.
// These are pure functions so they can be checked against bench readings.
package sensors

import (
	"math"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/config"
)

// maxPlausibleOhms screens absurd divider results (open circuit).
const maxPlausibleOhms = 1e6

// ThermistorCelsius converts a raw ADC sample from an NTC thermistor divider
// to degrees Celsius using the simplified Steinhart-Hart (Beta) model:
//
//	1/T = 1/T0 + (1/B) * ln(R/R0)
//
// Samples at or beyond either rail return NaN: the divider equation is
// meaningless there and the sensor is disconnected or shorted.
func ThermistorCelsius(raw int, c config.SensorConfig) float64 {
	if raw <= 0 || raw >= c.ADCMax {
		return math.NaN()
	}

	volts := float64(raw) * c.RefVolts / float64(c.ADCMax)

	// Divider: Vref -- [NTC] -- ADC -- [series R] -- GND
	ohms := c.NTCSeriesOhms * volts / (c.RefVolts - volts)
	if ohms <= 0 || ohms > maxPlausibleOhms {
		return math.NaN()
	}

	inv := math.Log(ohms/c.NTCNominalOhms)/c.NTCBeta + 1.0/(c.NTCNominalTemp+273.15)
	return 1.0/inv - 273.15
}

// RMSCounts computes the root-mean-square of raw ADC samples after
// subtracting the DC center, in ADC counts. The sum of squares is
// accumulated in an int64 so a full 500-sample burst at full scale
// cannot overflow.
func RMSCounts(samples []int, center int) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares int64
	for _, s := range samples {
		d := int64(s - center)
		sumSquares += d * d
	}
	return math.Sqrt(float64(sumSquares) / float64(len(samples)))
}

// VoltsRMS converts an AC voltage sample burst to volts using the sensor's
// calibration scale factor. The waveform is centered at mid-scale.
func VoltsRMS(samples []int, c config.SensorConfig) float64 {
	rms := RMSCounts(samples, c.ADCMax/2)
	return rms * c.VoltageScale / float64(c.ADCMax) * c.RefVolts
}

// AmpsRMS converts an AC current sample burst to amps. The zero-current
// point is sensor-specific (about half the supply for a hall-effect sensor).
func AmpsRMS(samples []int, c config.SensorConfig) float64 {
	zero := int(c.CurrentZeroVolts * float64(c.ADCMax) / c.RefVolts)
	rms := RMSCounts(samples, zero)
	voltsRMS := rms * c.RefVolts / float64(c.ADCMax)
	return voltsRMS / c.CurrentVoltsPerAmp
}

// PressurePSI converts a raw ADC sample from a ratiometric pressure
// transducer to PSI. The sampled voltage is clamped into the sensor's
// documented output range, then linearly interpolated to full scale.
func PressurePSI(raw int, c config.SensorConfig) float64 {
	volts := float64(raw) * c.RefVolts / float64(c.ADCMax)

	if volts < c.PressureMinVolts {
		volts = c.PressureMinVolts
	}
	if volts > c.PressureMaxVolts {
		volts = c.PressureMaxVolts
	}

	return (volts - c.PressureMinVolts) / (c.PressureMaxVolts - c.PressureMinVolts) * c.PressureMaxPSI
}

// validReading reports whether a converted value is finite and within the
// configured plausible range for its sensor.
func validReading(v, min, max float64) bool {
	return !math.IsNaN(v) && v >= min && v <= max
}
