package flex

import (
	"time"

	"github.com/kilianp07/evflex/core/model"
)

// Summary aggregates the estimated bounds of one chain.
type Summary struct {
	VehicleID            string    `json:"vehicle_id"`
	Day                  time.Time `json:"day"`
	Distance             float64   `json:"distance"`
	Drain                float64   `json:"drain"`
	ChargeVolume         float64   `json:"charge_volume"`
	UncontrolledCharging float64   `json:"uncontrolled_charging"`
	MaxResidualNeed      float64   `json:"max_residual_need"`
	MinResidualNeed      float64   `json:"min_residual_need"`
	MaxAuxiliaryFuelNeed float64   `json:"max_auxiliary_fuel_need"`
	MinAuxiliaryFuelNeed float64   `json:"min_auxiliary_fuel_need"`
	Electrifiable        bool      `json:"electrifiable"`
}

// Summarize totals the activities of an estimated chain.
func Summarize(c *model.Chain) Summary {
	s := Summary{VehicleID: c.VehicleID, Day: c.Start, Electrifiable: !c.HasResidualNeed()}
	for i := range c.Activities {
		a := &c.Activities[i]
		b := a.Bounds
		switch v := a.Variant.(type) {
		case *model.Trip:
			s.Distance += v.Distance
			s.Drain += v.Drain
		case *model.Park:
			s.ChargeVolume += v.MaxChargeVolume
		}
		s.UncontrolledCharging += b.UncontrolledCharging
		s.MaxResidualNeed += b.MaxResidualNeed
		s.MinResidualNeed += b.MinResidualNeed
		s.MaxAuxiliaryFuelNeed += b.MaxAuxiliaryFuelNeed
		s.MinAuxiliaryFuelNeed += b.MinAuxiliaryFuelNeed
	}
	return s
}
