package chain

import (
	"fmt"

	"github.com/kilianp07/evflex/core/model"
)

// Config defines chain construction settings.
type Config struct {
	// SplitOvernightTrips splits a trip crossing the horizon end into an
	// evening and a morning part instead of dropping it.
	SplitOvernightTrips bool `json:"split_overnight_trips"`
	// HorizonDays is the number of calendar days a chain covers.
	HorizonDays int `json:"horizon_days"`
	// DroppedDistanceTolerance bounds the share of total trip distance that
	// overlapping morning shards may discard.
	DroppedDistanceTolerance float64 `json:"dropped_distance_tolerance"`
	// DefaultStartPurpose is the purpose of the park opening every chain.
	DefaultStartPurpose model.Purpose `json:"default_start_purpose"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.HorizonDays == 0 {
		c.HorizonDays = 1
	}
	if c.DroppedDistanceTolerance == 0 {
		c.DroppedDistanceTolerance = 0.01
	}
	if c.DefaultStartPurpose == "" {
		c.DefaultStartPurpose = model.PurposeHome
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.HorizonDays <= 0 {
		return fmt.Errorf("horizon_days must be positive")
	}
	if c.DroppedDistanceTolerance <= 0 || c.DroppedDistanceTolerance > 1 {
		return fmt.Errorf("dropped_distance_tolerance must be in (0,1], got %v", c.DroppedDistanceTolerance)
	}
	return nil
}
