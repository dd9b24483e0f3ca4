package flex

import "fmt"

// Mode selects how the sweeps are run.
type Mode string

const (
	// ModeSingle runs one forward and one backward sweep with fixed seeds.
	ModeSingle Mode = "single"
	// ModeIterative feeds the end level of each chain back into its start
	// until the sweeps converge or MaxIterations is reached.
	ModeIterative Mode = "iterative"
)

// GroupBy names the key used when filtering non-electrifiable chains.
type GroupBy string

const (
	GroupByVehicle      GroupBy = "vehicle"
	GroupByCategoryWeek GroupBy = "category_week"
)

// Config holds the battery and consumption parameters shared by both sweeps.
// Battery levels are fractions of BatteryCapacity; the estimator works in kWh.
type Config struct {
	BatteryCapacity     float64 `json:"battery_capacity"`
	LowerBatteryLevel   float64 `json:"lower_battery_level"`
	UpperBatteryLevel   float64 `json:"upper_battery_level"`
	StartSOC            float64 `json:"start_soc"`
	EndSOC              float64 `json:"end_soc"`
	ConsumptionRate     float64 `json:"consumption_rate"`
	FuelConsumptionRate float64 `json:"fuel_consumption_rate"`
	EpsilonBatteryLevel float64 `json:"epsilon_battery_level"`
	MaxIterations       int     `json:"max_iterations"`
	FilterFuelNeed      bool    `json:"filter_fuel_need"`
	Mode                Mode    `json:"mode"`
	GroupBy             GroupBy `json:"group_by"`
	Workers             int     `json:"workers"`
}

// SetDefaults fills unset values. EndSOC falls back to the lower level.
func (c *Config) SetDefaults() {
	if c.BatteryCapacity == 0 {
		c.BatteryCapacity = 50
	}
	if c.LowerBatteryLevel == 0 {
		c.LowerBatteryLevel = 0.1
	}
	if c.UpperBatteryLevel == 0 {
		c.UpperBatteryLevel = 0.97
	}
	if c.StartSOC == 0 {
		c.StartSOC = 0.5
	}
	if c.EndSOC == 0 {
		c.EndSOC = c.LowerBatteryLevel
	}
	if c.ConsumptionRate == 0 {
		c.ConsumptionRate = 0.2
	}
	if c.FuelConsumptionRate == 0 {
		c.FuelConsumptionRate = 0.06
	}
	if c.EpsilonBatteryLevel == 0 {
		c.EpsilonBatteryLevel = 0.001
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 10
	}
	if c.Mode == "" {
		c.Mode = ModeSingle
	}
	if c.GroupBy == "" {
		c.GroupBy = GroupByVehicle
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

// Validate checks the parameters for consistency.
func (c Config) Validate() error {
	if c.BatteryCapacity <= 0 {
		return fmt.Errorf("%w: battery_capacity must be positive", ErrInvalidConfig)
	}
	if c.LowerBatteryLevel < 0 || c.UpperBatteryLevel > 1 || c.LowerBatteryLevel >= c.UpperBatteryLevel {
		return fmt.Errorf("%w: need 0 <= lower_battery_level < upper_battery_level <= 1", ErrInvalidConfig)
	}
	if c.StartSOC < 0 || c.StartSOC > 1 || c.EndSOC < 0 || c.EndSOC > 1 {
		return fmt.Errorf("%w: start_soc and end_soc must be within [0,1]", ErrInvalidConfig)
	}
	if c.ConsumptionRate <= 0 {
		return fmt.Errorf("%w: consumption_rate must be positive", ErrInvalidConfig)
	}
	if c.FuelConsumptionRate < 0 {
		return fmt.Errorf("%w: fuel_consumption_rate must not be negative", ErrInvalidConfig)
	}
	if c.EpsilonBatteryLevel <= 0 || c.MaxIterations <= 0 {
		return fmt.Errorf("%w: epsilon_battery_level and max_iterations must be positive", ErrInvalidConfig)
	}
	switch c.Mode {
	case ModeSingle, ModeIterative:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	switch c.GroupBy {
	case GroupByVehicle, GroupByCategoryWeek:
	default:
		return fmt.Errorf("%w: unknown group_by %q", ErrInvalidConfig, c.GroupBy)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1", ErrInvalidConfig)
	}
	return nil
}

// Lower returns the lower battery bound in kWh.
func (c Config) Lower() float64 { return c.LowerBatteryLevel * c.BatteryCapacity }

// Upper returns the upper battery bound in kWh.
func (c Config) Upper() float64 { return c.UpperBatteryLevel * c.BatteryCapacity }

// StartLevel returns the forward seed in kWh, clamped to the bounds.
func (c Config) StartLevel() float64 { return c.clamp(c.StartSOC * c.BatteryCapacity) }

// EndLevel returns the backward seed in kWh, clamped to the bounds.
func (c Config) EndLevel() float64 { return c.clamp(c.EndSOC * c.BatteryCapacity) }

func (c Config) clamp(v float64) float64 {
	if v < c.Lower() {
		return c.Lower()
	}
	if v > c.Upper() {
		return c.Upper()
	}
	return v
}
