package model

import "time"

// ActivityRow is the flat tabular form of an activity handed to writers and
// stores. Exactly one of TripID and ParkID is set.
type ActivityRow struct {
	VehicleID  string    `json:"vehicle_id"`
	ActivityID int       `json:"activity_id"`
	TripID     *int      `json:"trip_id"`
	ParkID     *int      `json:"park_id"`
	Start      time.Time `json:"timestamp_start"`
	End        time.Time `json:"timestamp_end"`
	Duration   float64   `json:"duration"` // hours
	Purpose    Purpose   `json:"purpose"`
	IsFirst    bool      `json:"is_first_activity"`
	IsLast     bool      `json:"is_last_activity"`
	NextID     *int      `json:"next_activity_id"`
	PreviousID *int      `json:"previous_activity_id"`
	Distance   float64   `json:"distance"`
	Drain      float64   `json:"drain"`

	RatedPower      float64 `json:"rated_power"`
	AvailablePower  float64 `json:"available_power"`
	MaxChargeVolume float64 `json:"max_charge_volume"`

	MaxBatteryLevelStart float64    `json:"max_battery_level_start"`
	MaxBatteryLevelEnd   float64    `json:"max_battery_level_end"`
	MinBatteryLevelStart float64    `json:"min_battery_level_start"`
	MinBatteryLevelEnd   float64    `json:"min_battery_level_end"`
	MaxResidualNeed      float64    `json:"max_residual_need"`
	MinResidualNeed      float64    `json:"min_residual_need"`
	MaxOvershoot         float64    `json:"max_overshoot"`
	MinUndershoot        float64    `json:"min_undershoot"`
	UncontrolledCharging float64    `json:"uncontrolled_charging"`
	ChargingEnd          *time.Time `json:"charging_end_timestamp"`
	MaxAuxiliaryFuelNeed float64    `json:"max_auxiliary_fuel_need"`
	MinAuxiliaryFuelNeed float64    `json:"min_auxiliary_fuel_need"`
}

func intRef(v int) *int { return &v }

// Row flattens the activity.
func (a *Activity) Row() ActivityRow {
	r := ActivityRow{
		VehicleID:  a.VehicleID,
		ActivityID: a.ID,
		Start:      a.Start,
		End:        a.End,
		Duration:   a.Duration().Hours(),
		Purpose:    a.Purpose,
		IsFirst:    a.IsFirst,
		IsLast:     a.IsLast,

		MaxBatteryLevelStart: a.Bounds.MaxBatteryLevelStart,
		MaxBatteryLevelEnd:   a.Bounds.MaxBatteryLevelEnd,
		MinBatteryLevelStart: a.Bounds.MinBatteryLevelStart,
		MinBatteryLevelEnd:   a.Bounds.MinBatteryLevelEnd,
		MaxResidualNeed:      a.Bounds.MaxResidualNeed,
		MinResidualNeed:      a.Bounds.MinResidualNeed,
		MaxOvershoot:         a.Bounds.MaxOvershoot,
		MinUndershoot:        a.Bounds.MinUndershoot,
		UncontrolledCharging: a.Bounds.UncontrolledCharging,
		ChargingEnd:          a.Bounds.ChargingEnd,
		MaxAuxiliaryFuelNeed: a.Bounds.MaxAuxiliaryFuelNeed,
		MinAuxiliaryFuelNeed: a.Bounds.MinAuxiliaryFuelNeed,
	}
	if a.HasNext() {
		r.NextID = intRef(a.NextID)
	}
	if a.HasPrevious() {
		r.PreviousID = intRef(a.PreviousID)
	}
	switch v := a.Variant.(type) {
	case *Trip:
		r.TripID = intRef(v.TripID)
		r.Distance = v.Distance
		r.Drain = v.Drain
	case *Park:
		r.ParkID = intRef(v.ParkID)
		r.RatedPower = v.RatedPower
		r.AvailablePower = v.AvailablePower
		r.MaxChargeVolume = v.MaxChargeVolume
	}
	return r
}

// Rows flattens the chain in chain order.
func (c *Chain) Rows() []ActivityRow {
	rows := make([]ActivityRow, len(c.Activities))
	for i := range c.Activities {
		rows[i] = c.Activities[i].Row()
	}
	return rows
}
