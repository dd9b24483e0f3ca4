package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kilianp07/evflex/core/store"
	"github.com/kilianp07/evflex/pkg/export"
)

// PipelineConfig selects the trip source and the fan-out width.
type PipelineConfig struct {
	// Source is the registered trip source type.
	Source string `json:"source"`
	// Input is the path handed to the trip source.
	Input string `json:"input"`
	// Timezone interprets timestamps without a zone.
	Timezone string `json:"timezone"`
	// Workers bounds the vehicles processed concurrently.
	Workers int `json:"workers"`
}

// SetDefaults applies sane defaults.
func (c *PipelineConfig) SetDefaults() {
	if c.Source == "" {
		c.Source = "csv"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// Validate checks the timezone can be loaded.
func (c PipelineConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured timezone.
func (c PipelineConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// OutputConfig defines where result tables are written. Empty paths disable
// the corresponding output.
type OutputConfig struct {
	Format      string `json:"format"`
	Path        string `json:"path"`
	ProfilePath string `json:"profile_path"`
	FleetPath   string `json:"fleet_path"`
	// ChartPath receives an HTML chart of the fleet profile.
	ChartPath string `json:"chart_path"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = string(export.FormatCSV)
	}
}

// Validate checks the format.
func (c OutputConfig) Validate() error {
	_, err := export.ParseFormat(c.Format)
	return err
}

// StoreConfig defines the activity row store.
type StoreConfig struct {
	// Backend selects the store type: "jsonl", "jsonl_rotating", "sqlite"
	// or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Options returns the file options handed to the store factory.
func (c StoreConfig) Options() store.Options {
	return store.Options{Path: c.Path, MaxSizeMB: c.MaxSizeMB, MaxBackups: c.MaxBackups, MaxAgeDays: c.MaxAgeDays}
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "none":
		return nil
	case "jsonl", "jsonl_rotating", "sqlite":
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must be >= 0")
	}
	return nil
}

// LogConfig sets the global log level.
type LogConfig struct {
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("level: %w", err)
	}
	return nil
}

// SentryConfig defines settings for Sentry error monitoring. An empty DSN
// disables it.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	ServerName       string  `json:"server_name"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

// Validate checks the sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be within [0,1]")
	}
	return nil
}
