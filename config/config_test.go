package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/evflex/core/flex"
	"github.com/kilianp07/evflex/core/model"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `pipeline:
  input: "trips.csv"
  workers: 8
chain:
  split_overnight_trips: true
  horizon_days: 7
flex:
  battery_capacity: 60
  mode: "iterative"
  filter_fuel_need: true
availability:
  rated_power:
    HOME: 11
    WORK: 22
  efficiency: 0.9
profile:
  slot_minutes: 60
output:
  format: "json"
  path: "out.json"
  chart_path: "fleet.html"
store:
  backend: "sqlite"
  path: "rows.db"
metrics:
  sinks:
    - type: "nop"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "evflex"
tracing:
  enabled: true
  exporter: "stdout"
sentry:
  environment: "test"
log:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"pipeline.input", cfg.Pipeline.Input, "trips.csv"},
		{"pipeline.workers", cfg.Pipeline.Workers, 8},
		{"pipeline.source", cfg.Pipeline.Source, "csv"},
		{"chain.split", cfg.Chain.SplitOvernightTrips, true},
		{"chain.horizon_days", cfg.Chain.HorizonDays, 7},
		{"chain.start_purpose", cfg.Chain.DefaultStartPurpose, model.PurposeHome},
		{"flex.capacity", cfg.Flex.BatteryCapacity, 60.0},
		{"flex.mode", cfg.Flex.Mode, flex.ModeIterative},
		{"flex.filter", cfg.Flex.FilterFuelNeed, true},
		{"flex.upper default", cfg.Flex.UpperBatteryLevel, 0.97},
		{"availability.work", cfg.Availability.RatedPower[model.PurposeWork], 22.0},
		{"availability.efficiency", cfg.Availability.Efficiency, 0.9},
		{"profile.slot", cfg.Profile.SlotMinutes, 60},
		{"output.format", cfg.Output.Format, "json"},
		{"output.chart", cfg.Output.ChartPath, "fleet.html"},
		{"store.backend", cfg.Store.Backend, "sqlite"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"tracing.enabled", cfg.Tracing.Enabled, true},
		{"tracing.service", cfg.Tracing.ServiceName, "evflex"},
		{"sentry.environment", cfg.Sentry.Environment, "test"},
		{"log.level", cfg.Log.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"flex":{"mode":"single"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_FLEX__MODE", "iterative")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Flex.Mode != flex.ModeIterative {
		t.Fatalf("env override not applied: %s", cfg.Flex.Mode)
	}
	if cfg.Store.Backend != "none" || cfg.Output.Format != "csv" {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Store, cfg.Output)
	}
}

func TestLoadValidation(t *testing.T) {
	checks := []struct {
		name string
		data string
	}{
		{"flex window", "flex:\n  lower_battery_level: 0.9\n  upper_battery_level: 0.5\n"},
		{"store path", "store:\n  backend: sqlite\n"},
		{"store backend", "store:\n  backend: redis\n  path: x\n"},
		{"output format", "output:\n  format: parquet\n"},
		{"log level", "log:\n  level: loud\n"},
		{"timezone", "pipeline:\n  timezone: Mars/Olympus\n"},
		{"slot", "profile:\n  slot_minutes: 7\n"},
		{"sentry rate", "sentry:\n  traces_sample_rate: 2\n"},
		{"rotation", "store:\n  backend: jsonl_rotating\n  path: x\n  max_backups: -1\n"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(c.data), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error for toml")
	}
}
