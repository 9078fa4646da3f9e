// Package config handles configuration loading from YAML files and
// environment variables. Configuration precedence: environment variables >
// config file > defaults. The resolved configuration is the only state that
// survives a device restart.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "10s", "5m", "200us".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all monitor configuration.
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	Timers     TimerConfig      `yaml:"timers"`
	Sensors    SensorConfig     `yaml:"sensors"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Buffer     BufferConfig     `yaml:"buffer"`
	Transport  TransportConfig  `yaml:"transport"`
	SMS        SMSConfig        `yaml:"sms"`
	Diag       DiagConfig       `yaml:"diag"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DeviceConfig identifies this unit and its topic namespace.
type DeviceConfig struct {
	ID        string `yaml:"id"`
	Namespace string `yaml:"namespace"`
}

// TimerConfig holds all periodic intervals driven by the scheduler.
type TimerConfig struct {
	SensorRead    Duration `yaml:"sensor_read"`
	Publish       Duration `yaml:"publish"`
	CommandPoll   Duration `yaml:"command_poll"`
	Heartbeat     Duration `yaml:"heartbeat"`
	AlertCooldown Duration `yaml:"alert_cooldown"`
	Watchdog      Duration `yaml:"watchdog"`
}

// SensorConfig holds ADC parameters and per-sensor calibration constants.
type SensorConfig struct {
	Simulate bool   `yaml:"simulate"`
	ADCPath  string `yaml:"adc_path"`

	ADCMax   int     `yaml:"adc_max"`
	RefVolts float64 `yaml:"ref_volts"`

	// 10K NTC thermistor behind a series divider.
	NTCBeta         float64 `yaml:"ntc_beta"`
	NTCNominalOhms  float64 `yaml:"ntc_nominal_ohms"`
	NTCNominalTemp  float64 `yaml:"ntc_nominal_temp"`
	NTCSeriesOhms   float64 `yaml:"ntc_series_ohms"`

	// AC RMS sampling.
	RMSSamples    int      `yaml:"rms_samples"`
	SampleSpacing Duration `yaml:"sample_spacing"`
	VoltageScale  float64  `yaml:"voltage_scale"`
	// ACS712 current sensor: output volts per amp and the zero-current point.
	CurrentVoltsPerAmp float64 `yaml:"current_volts_per_amp"`
	CurrentZeroVolts   float64 `yaml:"current_zero_volts"`

	// Pressure transducer output range and full-scale pressure.
	PressureMinVolts float64 `yaml:"pressure_min_volts"`
	PressureMaxVolts float64 `yaml:"pressure_max_volts"`
	PressureMaxPSI   float64 `yaml:"pressure_max_psi"`

	// Validity ranges, checked independently of the raw conversion.
	TempMinValid     float64 `yaml:"temp_min_valid"`
	TempMaxValid     float64 `yaml:"temp_max_valid"`
	VoltageMinValid  float64 `yaml:"voltage_min_valid"`
	VoltageMaxValid  float64 `yaml:"voltage_max_valid"`
	CurrentMinValid  float64 `yaml:"current_min_valid"`
	CurrentMaxValid  float64 `yaml:"current_max_valid"`
	PressureMinValid float64 `yaml:"pressure_min_valid"`
	PressureMaxValid float64 `yaml:"pressure_max_valid"`

	// Current draw above which the compressor is considered running.
	CompressorOnAmps float64 `yaml:"compressor_on_amps"`
}

// Band holds a warning/critical threshold pair for a single direction.
type Band struct {
	Warning  float64 `yaml:"warning"`
	Critical float64 `yaml:"critical"`
}

// VoltageThresholds holds directional voltage cutoffs.
type VoltageThresholds struct {
	High Band `yaml:"high"`
	Low  Band `yaml:"low"`
}

// ThresholdConfig holds all alert thresholds per monitored parameter.
type ThresholdConfig struct {
	Voltage        VoltageThresholds `yaml:"voltage"`
	CompressorTemp Band              `yaml:"compressor_temp"`
	PressureHigh   Band              `yaml:"pressure_high"`
	PressureLow    Band              `yaml:"pressure_low"`
	Current        Band              `yaml:"current"`
}

// BufferConfig holds offline buffer settings.
type BufferConfig struct {
	Capacity int `yaml:"capacity"`
}

// EndpointConfig describes one MQTT endpoint reachable over one network path.
type EndpointConfig struct {
	Broker         string   `yaml:"broker"`
	Port           int      `yaml:"port"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	RetryInterval  Duration `yaml:"retry_interval"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
}

// Addr returns the host:port form of the endpoint.
func (e EndpointConfig) Addr() string {
	return fmt.Sprintf("%s:%d", e.Broker, e.Port)
}

// TransportConfig holds both network paths. Primary is preferred; Secondary
// is the fallback used only while Primary is unavailable.
type TransportConfig struct {
	Primary   EndpointConfig `yaml:"primary"`
	Secondary EndpointConfig `yaml:"secondary"`
}

// SMSConfig holds the operator notification/command channel settings.
type SMSConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AccountSID  string `yaml:"account_sid"`
	AuthToken   string `yaml:"auth_token"`
	FromNumber  string `yaml:"from_number"`
	AdminNumber string `yaml:"admin_number"`
}

// DiagConfig holds the diagnostic log viewer settings.
type DiagConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Listen      string `yaml:"listen"`
	LogRingSize int    `yaml:"log_ring_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns the default configuration. Calibration constants and
// thresholds default to the reference hardware (10K NTC, ZMPT101B, ACS712-20A,
// 0.5-4.5V/500PSI transducers).
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:        "site1",
			Namespace: "heatpump",
		},
		Timers: TimerConfig{
			SensorRead:    Duration{10 * time.Second},
			Publish:       Duration{10 * time.Second},
			CommandPoll:   Duration{5 * time.Second},
			Heartbeat:     Duration{60 * time.Second},
			AlertCooldown: Duration{5 * time.Minute},
			Watchdog:      Duration{30 * time.Second},
		},
		Sensors: SensorConfig{
			Simulate:           false,
			ADCPath:            "/sys/bus/iio/devices/iio:device0",
			ADCMax:             4095,
			RefVolts:           3.3,
			NTCBeta:            3950.0,
			NTCNominalOhms:     10000.0,
			NTCNominalTemp:     25.0,
			NTCSeriesOhms:      10000.0,
			RMSSamples:         500,
			SampleSpacing:      Duration{200 * time.Microsecond},
			VoltageScale:       234.26,
			CurrentVoltsPerAmp: 0.100,
			CurrentZeroVolts:   1.65,
			PressureMinVolts:   0.5,
			PressureMaxVolts:   4.5,
			PressureMaxPSI:     500.0,
			TempMinValid:       -40.0,
			TempMaxValid:       125.0,
			VoltageMinValid:    0.0,
			VoltageMaxValid:    300.0,
			CurrentMinValid:    0.0,
			CurrentMaxValid:    25.0,
			PressureMinValid:   0.0,
			PressureMaxValid:   500.0,
			CompressorOnAmps:   1.0,
		},
		Thresholds: ThresholdConfig{
			Voltage: VoltageThresholds{
				High: Band{Warning: 245.0, Critical: 250.0},
				Low:  Band{Warning: 215.0, Critical: 210.0},
			},
			CompressorTemp: Band{Warning: 85.0, Critical: 95.0},
			PressureHigh:   Band{Warning: 400.0, Critical: 450.0},
			PressureLow:    Band{Warning: 40.0, Critical: 20.0},
			Current:        Band{Warning: 12.0, Critical: 15.0},
		},
		Buffer: BufferConfig{
			Capacity: 100,
		},
		Transport: TransportConfig{
			Primary: EndpointConfig{
				Broker:         "localhost",
				Port:           1883,
				RetryInterval:  Duration{1 * time.Minute},
				ConnectTimeout: Duration{15 * time.Second},
			},
			Secondary: EndpointConfig{
				Port:           1883,
				RetryInterval:  Duration{1 * time.Minute},
				ConnectTimeout: Duration{30 * time.Second},
			},
		},
		SMS: SMSConfig{
			Enabled: false,
		},
		Diag: DiagConfig{
			Enabled:     false,
			Listen:      ":8080",
			LogRingSize: 16384,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with
// defaults. Environment variables take highest precedence.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// applyEnvOverrides applies environment variable overrides. These exist so a
// deployment can inject credentials without writing them into the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HP_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("HP_PRIMARY_BROKER"); v != "" {
		cfg.Transport.Primary.Broker = v
	}
	if v := os.Getenv("HP_PRIMARY_PASSWORD"); v != "" {
		cfg.Transport.Primary.Password = v
	}
	if v := os.Getenv("HP_SECONDARY_BROKER"); v != "" {
		cfg.Transport.Secondary.Broker = v
	}
	if v := os.Getenv("HP_SECONDARY_PASSWORD"); v != "" {
		cfg.Transport.Secondary.Password = v
	}
	if v := os.Getenv("HP_SMS_AUTH_TOKEN"); v != "" {
		cfg.SMS.AuthToken = v
	}
	if v := os.Getenv("HP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks that the configuration is usable for an unattended run.
func (c *Config) Validate() error {
	if c.Device.ID == "" {
		return fmt.Errorf("device id is required")
	}
	if c.Device.Namespace == "" {
		return fmt.Errorf("device namespace is required")
	}
	if c.Buffer.Capacity <= 0 {
		return fmt.Errorf("buffer capacity must be positive (got %d)", c.Buffer.Capacity)
	}
	if c.Transport.Primary.Broker == "" {
		return fmt.Errorf("primary broker is required")
	}
	if c.Timers.Watchdog.Duration <= 0 {
		return fmt.Errorf("watchdog timeout must be positive")
	}
	if c.Sensors.RMSSamples <= 0 {
		return fmt.Errorf("rms sample count must be positive (got %d)", c.Sensors.RMSSamples)
	}
	if c.SMS.Enabled {
		if c.SMS.AccountSID == "" || c.SMS.AuthToken == "" {
			return fmt.Errorf("sms enabled but account credentials are missing")
		}
		if c.SMS.AdminNumber == "" {
			return fmt.Errorf("sms enabled but admin number is missing")
		}
	}
	return nil
}
