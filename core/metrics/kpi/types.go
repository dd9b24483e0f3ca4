package kpi

import "time"

// Record aggregates the daily flexibility figures of one vehicle.
type Record struct {
	VehicleID               string
	Date                    time.Time
	Chains                  int
	DrainKWh                float64
	UncontrolledChargingKWh float64
	ResidualNeedKWh         float64
}

// ElectricShare returns the share of drain covered by the battery on the
// maximum path.
func (r Record) ElectricShare() float64 {
	if r.DrainKWh == 0 {
		return 1
	}
	share := 1 - r.ResidualNeedKWh/r.DrainKWh
	if share < 0 {
		return 0
	}
	return share
}

// ChargingRatio returns uncontrolled charging energy per unit of drain.
func (r Record) ChargingRatio() float64 {
	if r.DrainKWh == 0 {
		return 0
	}
	return r.UncontrolledChargingKWh / r.DrainKWh
}
