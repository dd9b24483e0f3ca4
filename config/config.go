package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/evflex/core/availability"
	"github.com/kilianp07/evflex/core/chain"
	"github.com/kilianp07/evflex/core/flex"
	"github.com/kilianp07/evflex/core/metrics"
	"github.com/kilianp07/evflex/core/profile"
	"github.com/kilianp07/evflex/infra/mqtt"
	"github.com/kilianp07/evflex/infra/telemetry"
)

type Config struct {
	Pipeline     PipelineConfig      `json:"pipeline"`
	Chain        chain.Config        `json:"chain"`
	Flex         flex.Config         `json:"flex"`
	Availability availability.Config `json:"availability"`
	Profile      profile.Config      `json:"profile"`
	Output       OutputConfig        `json:"output"`
	Store        StoreConfig         `json:"store"`
	Metrics      metrics.Config      `json:"metrics"`
	MQTT         mqtt.Config         `json:"mqtt"`
	Tracing      telemetry.Config    `json:"tracing"`
	Sentry       SentryConfig        `json:"sentry"`
	Log          LogConfig           `json:"log"`
}

// Load reads the YAML or JSON file at path, applies K_ prefixed environment
// overrides (K_FLEX__MODE=iterative sets flex.mode), fills defaults and
// validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Pipeline.SetDefaults()
	c.Chain.SetDefaults()
	c.Flex.SetDefaults()
	c.Availability.SetDefaults()
	c.Profile.SetDefaults()
	c.Output.SetDefaults()
	c.Store.SetDefaults()
	c.Tracing.SetDefaults()
	c.Log.SetDefaults()
}

// Validate checks every section and names the failing one.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"pipeline", c.Pipeline.Validate},
		{"chain", c.Chain.Validate},
		{"flex", c.Flex.Validate},
		{"availability", c.Availability.Validate},
		{"profile", c.Profile.Validate},
		{"output", c.Output.Validate},
		{"store", c.Store.Validate},
		{"sentry", c.Sentry.Validate},
		{"log", c.Log.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}
