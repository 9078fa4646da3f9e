package config

import (
	"testing"
	"time"
)

func TestLoadFromBytes_OverridesDefaults(t *testing.T) {
	data := []byte(`
device:
  id: "pump-7"
timers:
  sensor_read: "30s"
thresholds:
  voltage:
    high:
      warning: 240
      critical: 248
`)
	cfg, err := LoadFromBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device.ID != "pump-7" {
		t.Errorf("Device.ID = %q, want pump-7", cfg.Device.ID)
	}
	if cfg.Timers.SensorRead.Duration != 30*time.Second {
		t.Errorf("SensorRead = %v, want 30s", cfg.Timers.SensorRead.Duration)
	}
	if cfg.Thresholds.Voltage.High.Critical != 248 {
		t.Errorf("Voltage.High.Critical = %v, want 248", cfg.Thresholds.Voltage.High.Critical)
	}
	// Untouched sections keep their defaults.
	if cfg.Buffer.Capacity != 100 {
		t.Errorf("Buffer.Capacity = %d, want default 100", cfg.Buffer.Capacity)
	}
	if cfg.Sensors.RMSSamples != 500 {
		t.Errorf("RMSSamples = %d, want default 500", cfg.Sensors.RMSSamples)
	}
}

func TestLoadFromBytes_EnvOverridesFile(t *testing.T) {
	t.Setenv("HP_DEVICE_ID", "env-device")
	t.Setenv("HP_PRIMARY_BROKER", "broker.env.local")

	cfg, err := LoadFromBytes([]byte("device:\n  id: \"file-device\""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device.ID != "env-device" {
		t.Errorf("Device.ID = %q, want env override", cfg.Device.ID)
	}
	if cfg.Transport.Primary.Broker != "broker.env.local" {
		t.Errorf("Primary.Broker = %q, want env override", cfg.Transport.Primary.Broker)
	}
}

func TestValidate_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty device id", func(c *Config) { c.Device.ID = "" }},
		{"zero capacity", func(c *Config) { c.Buffer.Capacity = 0 }},
		{"no primary broker", func(c *Config) { c.Transport.Primary.Broker = "" }},
		{"zero watchdog", func(c *Config) { c.Timers.Watchdog.Duration = 0 }},
		{"sms without credentials", func(c *Config) { c.SMS.Enabled = true }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tc.name)
		}
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDuration_UnmarshalRejectsGarbage(t *testing.T) {
	if _, err := LoadFromBytes([]byte("timers:\n  publish: \"soon\"")); err == nil {
		t.Error("expected error for unparseable duration")
	}
}
