package sensors

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Channel identifies one analog input of the front end.
type Channel int

const (
	ChanTempInlet Channel = iota
	ChanTempOutlet
	ChanTempAmbient
	ChanTempCompressor
	ChanVoltage
	ChanCurrent
	ChanPressureHigh
	ChanPressureLow
)

// String returns the channel name used in logs.
func (c Channel) String() string {
	switch c {
	case ChanTempInlet:
		return "temp_inlet"
	case ChanTempOutlet:
		return "temp_outlet"
	case ChanTempAmbient:
		return "temp_ambient"
	case ChanTempCompressor:
		return "temp_compressor"
	case ChanVoltage:
		return "voltage"
	case ChanCurrent:
		return "current"
	case ChanPressureHigh:
		return "pressure_high"
	case ChanPressureLow:
		return "pressure_low"
	}
	return "unknown"
}

// ADC reads raw samples from the analog front end. ReadBurst is a blocking,
// time-bounded call: it returns after n samples spaced by the given interval.
type ADC interface {
	Read(ch Channel) (int, error)
	ReadBurst(ch Channel, n int, spacing time.Duration) ([]int, error)
}

// SysfsADC reads raw samples from a Linux IIO device via sysfs attributes
// (in_voltageN_raw). Channel numbers map one-to-one onto IIO channels.
type SysfsADC struct {
	dir string
}

// NewSysfsADC creates an ADC backed by the IIO device at dir
// (e.g. /sys/bus/iio/devices/iio:device0).
func NewSysfsADC(dir string) (*SysfsADC, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("iio device %s: %w", dir, err)
	}
	return &SysfsADC{dir: dir}, nil
}

// Read returns one raw sample from the given channel.
func (a *SysfsADC) Read(ch Channel) (int, error) {
	path := filepath.Join(a.dir, fmt.Sprintf("in_voltage%d_raw", int(ch)))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return raw, nil
}

// ReadBurst reads n samples spaced by the given interval. It blocks for
// roughly n*spacing; callers feed the watchdog before invoking it.
func (a *SysfsADC) ReadBurst(ch Channel, n int, spacing time.Duration) ([]int, error) {
	samples := make([]int, 0, n)
	for i := 0; i < n; i++ {
		raw, err := a.Read(ch)
		if err != nil {
			return nil, err
		}
		samples = append(samples, raw)
		if i < n-1 {
			time.Sleep(spacing)
		}
	}
	return samples, nil
}
