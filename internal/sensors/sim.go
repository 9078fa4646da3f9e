package sensors

import (
	"math/rand"
	"time"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// Simulator generates physically plausible snapshots with small bounded
// jitter around nominal heat pump operating points, for running the full
// pipeline without hardware attached. Alerting and publishing behave
// identically to live mode.
type Simulator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator creates a simulated snapshot source.
func NewSimulator() *Simulator {
	return &Simulator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// jitter returns a uniform value in [-1, +1).
func (s *Simulator) jitter() float64 {
	return s.rng.Float64()*2 - 1
}

// Snapshot returns a simulated reading set around nominal operation:
// a running compressor drawing 8.5A at 230V with typical refrigerant
// pressures.
func (s *Simulator) Snapshot() models.Snapshot {
	now := s.now()
	j := s.jitter()

	reading := func(v float64) models.Reading {
		return models.Reading{Value: v, Valid: true, Timestamp: now}
	}

	snap := models.Snapshot{
		TempInlet:      reading(45.0 + j),
		TempOutlet:     reading(50.0 + j),
		TempAmbient:    reading(25.0 + j),
		TempCompressor: reading(70.0 + j*2.0),
		Voltage:        reading(230.0 + j*5.0),
		Current:        reading(8.5 + j*0.5),
		PressureHigh:   reading(280.0 + j*10.0),
		PressureLow:    reading(70.0 + j*5.0),

		CompressorRunning: true,
		FanRunning:        true,
		DefrostActive:     false,

		CapturedAt: now,
	}
	snap.Power = snap.Voltage.Value * snap.Current.Value
	return snap
}
