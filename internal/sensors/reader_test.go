package sensors

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeADC returns canned raw samples per channel and can fail channels.
type fakeADC struct {
	raw  map[Channel]int
	fail map[Channel]bool
}

func (f *fakeADC) Read(ch Channel) (int, error) {
	if f.fail[ch] {
		return 0, errors.New("channel fault")
	}
	return f.raw[ch], nil
}

func (f *fakeADC) ReadBurst(ch Channel, n int, _ time.Duration) ([]int, error) {
	if f.fail[ch] {
		return nil, errors.New("channel fault")
	}
	samples := make([]int, n)
	for i := range samples {
		samples[i] = f.raw[ch]
	}
	return samples, nil
}

func TestReader_InvalidChannelDoesNotPoisonSnapshot(t *testing.T) {
	cfg := testSensorConfig()
	adc := &fakeADC{
		raw: map[Channel]int{
			ChanTempInlet:      2048,
			ChanTempOutlet:     2048,
			ChanTempAmbient:    2048,
			ChanTempCompressor: 0, // railed: disconnected thermistor
			ChanVoltage:        2048,
			ChanCurrent:        2048,
			ChanPressureHigh:   2048,
			ChanPressureLow:    2048,
		},
		fail: map[Channel]bool{ChanPressureLow: true},
	}

	r := NewReader(adc, cfg, zap.NewNop())
	snap := r.Snapshot()

	if !snap.TempInlet.Valid {
		t.Error("inlet temp should be valid")
	}
	if snap.TempCompressor.Valid {
		t.Error("railed compressor temp should be invalid")
	}
	if snap.PressureLow.Valid {
		t.Error("failed channel should yield an invalid reading")
	}
	if !snap.PressureHigh.Valid {
		t.Error("healthy pressure channel should stay valid")
	}
}

func TestReader_PowerRequiresBothElectricalValid(t *testing.T) {
	cfg := testSensorConfig()

	// Constant mid-scale bursts give 0V RMS and 0A RMS at the voltage
	// center; current's zero point differs from mid-scale so a mid-scale
	// burst is a nonzero but in-range current.
	adc := &fakeADC{
		raw: map[Channel]int{
			ChanVoltage: 2048,
			ChanCurrent: 2048,
		},
		fail: map[Channel]bool{ChanVoltage: true},
	}

	r := NewReader(adc, cfg, zap.NewNop())
	snap := r.Snapshot()

	if snap.Voltage.Valid {
		t.Error("voltage should be invalid after burst failure")
	}
	if snap.Power != 0 {
		t.Errorf("Power = %v, want 0 when voltage invalid", snap.Power)
	}
}

func TestReader_CompressorRunningHeuristic(t *testing.T) {
	cfg := testSensorConfig()

	// A burst well away from the current zero point yields a large RMS.
	adc := &fakeADC{raw: map[Channel]int{ChanCurrent: 2800, ChanVoltage: 2048}}

	r := NewReader(adc, cfg, zap.NewNop())
	snap := r.Snapshot()

	if !snap.Current.Valid {
		t.Fatalf("current invalid, value=%v", snap.Current.Value)
	}
	if snap.Current.Value <= cfg.CompressorOnAmps {
		t.Fatalf("fixture current %.2fA should exceed the %.1fA heuristic", snap.Current.Value, cfg.CompressorOnAmps)
	}
	if !snap.CompressorRunning {
		t.Error("compressor should be detected as running")
	}
}

func TestSimulator_ValuesWithinValidRanges(t *testing.T) {
	cfg := testSensorConfig()
	sim := NewSimulator()

	for i := 0; i < 50; i++ {
		snap := sim.Snapshot()
		for name, r := range map[string]struct {
			v        float64
			min, max float64
		}{
			"temp_compressor": {snap.TempCompressor.Value, cfg.TempMinValid, cfg.TempMaxValid},
			"voltage":         {snap.Voltage.Value, cfg.VoltageMinValid, cfg.VoltageMaxValid},
			"current":         {snap.Current.Value, cfg.CurrentMinValid, cfg.CurrentMaxValid},
			"pressure_high":   {snap.PressureHigh.Value, cfg.PressureMinValid, cfg.PressureMaxValid},
		} {
			if r.v < r.min || r.v > r.max {
				t.Fatalf("%s = %v outside [%v, %v]", name, r.v, r.min, r.max)
			}
		}
		if !snap.Voltage.Valid || !snap.Current.Valid {
			t.Fatal("simulated readings must be valid")
		}
		if snap.Power == 0 {
			t.Fatal("simulated power should be nonzero")
		}
	}
}
