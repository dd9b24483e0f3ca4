package availability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evflex/core/model"
)

// Table maps park purposes to the rated power of the charging point found
// there.
type Table struct {
	RatedPower        map[model.Purpose]float64 `json:"rated_power" yaml:"rated_power"`
	DefaultRatedPower float64                   `json:"default_rated_power" yaml:"default_rated_power"`
}

// Config defines how parks are annotated with charging power.
type Config struct {
	RatedPower        map[model.Purpose]float64 `json:"rated_power" yaml:"rated_power"`
	DefaultRatedPower float64                   `json:"default_rated_power" yaml:"default_rated_power"`
	// Efficiency scales rated power to the power reaching the battery.
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
	// MinParkingMinutes is the shortest park that is plugged in at all.
	MinParkingMinutes int `json:"min_parking_minutes" yaml:"min_parking_minutes"`
	// TableFile optionally replaces the inline table.
	TableFile string `json:"table_file" yaml:"table_file"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Efficiency == 0 {
		c.Efficiency = 1
	}
	if c.RatedPower == nil && c.TableFile == "" {
		c.RatedPower = map[model.Purpose]float64{
			model.PurposeHome: 11,
			model.PurposeWork: 11,
		}
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Efficiency <= 0 || c.Efficiency > 1 {
		return fmt.Errorf("efficiency must be within (0,1], got %v", c.Efficiency)
	}
	if c.MinParkingMinutes < 0 {
		return fmt.Errorf("min_parking_minutes must not be negative")
	}
	if c.DefaultRatedPower < 0 {
		return fmt.Errorf("default_rated_power must not be negative")
	}
	for p, kw := range c.RatedPower {
		if kw < 0 {
			return fmt.Errorf("rated power for %s must not be negative", p)
		}
	}
	return nil
}

// LoadTable loads a Table from a JSON or YAML file.
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeTable(f, ext)
}

// DecodeTable reads a Table from r in the given format.
func DecodeTable(r io.Reader, format string) (Table, error) {
	var t Table
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&t); err != nil {
			return t, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&t); err != nil {
			return t, err
		}
	default:
		return t, fmt.Errorf("unsupported table format: %q", format)
	}
	return t, nil
}
