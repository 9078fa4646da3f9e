package publisher

import (
	"encoding/json"
	"math"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// Wire message for the collector. Field layout and rounding are fixed:
// temperatures and voltage to one decimal, current to two, power and
// pressures to whole units, alert severities as integer codes.
type wirePayload struct {
	Device    string `json:"device"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`

	Temperature wireTemps    `json:"temperature"`
	Electrical  wireElec     `json:"electrical"`
	Pressure    wirePressure `json:"pressure"`
	Status      wireStatus   `json:"status"`
	Alerts      wireAlerts   `json:"alerts"`
	Valid       wireValid    `json:"valid"`
}

type wireTemps struct {
	Inlet      float64 `json:"inlet"`
	Outlet     float64 `json:"outlet"`
	Ambient    float64 `json:"ambient"`
	Compressor float64 `json:"compressor"`
}

type wireElec struct {
	Voltage float64 `json:"voltage"`
	Current float64 `json:"current"`
	Power   int     `json:"power"`
}

type wirePressure struct {
	High int `json:"high"`
	Low  int `json:"low"`
}

type wireStatus struct {
	Compressor bool `json:"compressor"`
	Fan        bool `json:"fan"`
	Defrost    bool `json:"defrost"`
}

type wireAlerts struct {
	Voltage        int `json:"voltage"`
	CompressorTemp int `json:"compressor_temp"`
	PressureHigh   int `json:"pressure_high"`
	PressureLow    int `json:"pressure_low"`
	Current        int `json:"current"`
}

type wireValid struct {
	TempInlet      bool `json:"temp_inlet"`
	TempOutlet     bool `json:"temp_outlet"`
	TempAmbient    bool `json:"temp_ambient"`
	TempCompressor bool `json:"temp_compressor"`
	Voltage        bool `json:"voltage"`
	Current        bool `json:"current"`
	PressureHigh   bool `json:"pressure_high"`
	PressureLow    bool `json:"pressure_low"`
}

// round1 rounds to one decimal place. NaN (an invalid sensor) encodes as 0
// so the payload stays valid JSON; the valid map carries the truth.
func round1(v float64) float64 { return roundN(v, 10) }

// round2 rounds to two decimal places.
func round2(v float64) float64 { return roundN(v, 100) }

func roundN(v float64, scale float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*scale) / scale
}

func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

// BuildPayload serializes a snapshot into the wire message format.
func BuildPayload(snap models.Snapshot, deviceID, version string) ([]byte, error) {
	p := wirePayload{
		Device:    deviceID,
		Timestamp: snap.CapturedAt.UnixMilli(),
		Version:   version,
		Temperature: wireTemps{
			Inlet:      round1(snap.TempInlet.Value),
			Outlet:     round1(snap.TempOutlet.Value),
			Ambient:    round1(snap.TempAmbient.Value),
			Compressor: round1(snap.TempCompressor.Value),
		},
		Electrical: wireElec{
			Voltage: round1(snap.Voltage.Value),
			Current: round2(snap.Current.Value),
			Power:   roundInt(snap.Power),
		},
		Pressure: wirePressure{
			High: roundInt(snap.PressureHigh.Value),
			Low:  roundInt(snap.PressureLow.Value),
		},
		Status: wireStatus{
			Compressor: snap.CompressorRunning,
			Fan:        snap.FanRunning,
			Defrost:    snap.DefrostActive,
		},
		Alerts: wireAlerts{
			Voltage:        int(snap.Voltage.Severity),
			CompressorTemp: int(snap.TempCompressor.Severity),
			PressureHigh:   int(snap.PressureHigh.Severity),
			PressureLow:    int(snap.PressureLow.Severity),
			Current:        int(snap.Current.Severity),
		},
		Valid: wireValid{
			TempInlet:      snap.TempInlet.Valid,
			TempOutlet:     snap.TempOutlet.Valid,
			TempAmbient:    snap.TempAmbient.Valid,
			TempCompressor: snap.TempCompressor.Valid,
			Voltage:        snap.Voltage.Valid,
			Current:        snap.Current.Valid,
			PressureHigh:   snap.PressureHigh.Valid,
			PressureLow:    snap.PressureLow.Valid,
		},
	}
	return json.Marshal(p)
}
