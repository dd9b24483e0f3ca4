package profile

import (
	"errors"
	"time"
)

// Config defines the profile resolution.
type Config struct {
	SlotMinutes int `json:"slot_minutes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SlotMinutes == 0 {
		c.SlotMinutes = 15
	}
}

// Validate checks the slot length divides a day.
func (c Config) Validate() error {
	if c.SlotMinutes <= 0 {
		return errors.New("slot_minutes must be positive")
	}
	if (24*60)%c.SlotMinutes != 0 {
		return errors.New("slot_minutes must divide a day")
	}
	return nil
}

// Slot returns the slot length.
func (c Config) Slot() time.Duration { return time.Duration(c.SlotMinutes) * time.Minute }
