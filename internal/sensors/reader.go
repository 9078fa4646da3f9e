// Package sensors acquires calibrated measurements from the analog front
// end and assembles them into per-cycle snapshots. A simulation source
// exists for running without hardware attached.
package sensors

import (
	"time"

	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/config"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// Source produces one Snapshot per call. Implemented by the hardware Reader
// and by the Simulator.
type Source interface {
	Snapshot() models.Snapshot
}

// Reader acquires a full snapshot from the ADC each cycle. The RMS bursts
// make Snapshot a blocking call on the order of n*spacing per electrical
// channel.
type Reader struct {
	adc    ADC
	cfg    config.SensorConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewReader creates a hardware-backed snapshot source.
func NewReader(adc ADC, cfg config.SensorConfig, logger *zap.Logger) *Reader {
	return &Reader{
		adc:    adc,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot reads every channel, converts to physical units, and applies the
// independent validity range checks. A failed or implausible channel yields
// an invalid Reading; it never fails the whole snapshot.
func (r *Reader) Snapshot() models.Snapshot {
	now := r.now()
	snap := models.Snapshot{CapturedAt: now}

	snap.TempInlet = r.readTemp(ChanTempInlet, now)
	snap.TempOutlet = r.readTemp(ChanTempOutlet, now)
	snap.TempAmbient = r.readTemp(ChanTempAmbient, now)
	snap.TempCompressor = r.readTemp(ChanTempCompressor, now)

	snap.Voltage = r.readRMS(ChanVoltage, now)
	snap.Current = r.readRMS(ChanCurrent, now)

	if snap.Voltage.Valid && snap.Current.Valid {
		snap.Power = snap.Voltage.Value * snap.Current.Value
	}

	snap.PressureHigh = r.readPressure(ChanPressureHigh, now)
	snap.PressureLow = r.readPressure(ChanPressureLow, now)

	snap.CompressorRunning = snap.Current.Valid && snap.Current.Value > r.cfg.CompressorOnAmps

	return snap
}

func (r *Reader) readTemp(ch Channel, now time.Time) models.Reading {
	raw, err := r.adc.Read(ch)
	if err != nil {
		r.logger.Warn("ADC read failed", zap.Stringer("channel", ch), zap.Error(err))
		return models.Reading{Timestamp: now}
	}
	v := ThermistorCelsius(raw, r.cfg)
	return models.Reading{
		Value:     v,
		Valid:     validReading(v, r.cfg.TempMinValid, r.cfg.TempMaxValid),
		Timestamp: now,
	}
}

func (r *Reader) readRMS(ch Channel, now time.Time) models.Reading {
	samples, err := r.adc.ReadBurst(ch, r.cfg.RMSSamples, r.cfg.SampleSpacing.Duration)
	if err != nil {
		r.logger.Warn("ADC burst failed", zap.Stringer("channel", ch), zap.Error(err))
		return models.Reading{Timestamp: now}
	}

	var v, min, max float64
	if ch == ChanCurrent {
		v = AmpsRMS(samples, r.cfg)
		min, max = r.cfg.CurrentMinValid, r.cfg.CurrentMaxValid
	} else {
		v = VoltsRMS(samples, r.cfg)
		min, max = r.cfg.VoltageMinValid, r.cfg.VoltageMaxValid
	}
	return models.Reading{
		Value:     v,
		Valid:     validReading(v, min, max),
		Timestamp: now,
	}
}

func (r *Reader) readPressure(ch Channel, now time.Time) models.Reading {
	raw, err := r.adc.Read(ch)
	if err != nil {
		r.logger.Warn("ADC read failed", zap.Stringer("channel", ch), zap.Error(err))
		return models.Reading{Timestamp: now}
	}
	v := PressurePSI(raw, r.cfg)
	return models.Reading{
		Value:     v,
		Valid:     validReading(v, r.cfg.PressureMinValid, r.cfg.PressureMaxValid),
		Timestamp: now,
	}
}
