package flex

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/evflex/core/model"
)

// Prepare derives trip drain and park charge volume from the configured
// consumption rate and the available power set by the availability provider.
func (e *Estimator) Prepare(c *model.Chain) {
	for i := range c.Activities {
		a := &c.Activities[i]
		switch v := a.Variant.(type) {
		case *model.Trip:
			v.Drain = v.Distance * e.cfg.ConsumptionRate
		case *model.Park:
			v.MaxChargeVolume = v.AvailablePower * a.Duration().Hours()
		}
	}
}

// Forward runs the maximum charge sweep from the first activity, seeded with
// level kWh. Parks charge greedily; uncontrolled charging and the charging
// end timestamp are derived on the way.
func (e *Estimator) Forward(c *model.Chain, level float64) error {
	lower, upper := e.cfg.Lower(), e.cfg.Upper()
	level = e.cfg.clamp(level)
	return walk(c, true, func(a *model.Activity) {
		b := &a.Bounds
		b.MaxBatteryLevelStart = level
		switch v := a.Variant.(type) {
		case *model.Trip:
			b.MaxBatteryLevelEndUnlimited = level - v.Drain
			b.MaxBatteryLevelEnd = math.Max(b.MaxBatteryLevelEndUnlimited, lower)
			b.MaxResidualNeed = math.Max(0, lower-b.MaxBatteryLevelEndUnlimited)
		case *model.Park:
			b.MaxBatteryLevelEndUnlimited = level + v.MaxChargeVolume
			b.MaxBatteryLevelEnd = math.Min(b.MaxBatteryLevelEndUnlimited, upper)
			b.MaxOvershoot = math.Max(0, b.MaxBatteryLevelEndUnlimited-upper)
			b.UncontrolledCharging = b.MaxBatteryLevelEnd - b.MaxBatteryLevelStart
			b.ChargingEnd = chargingEnd(a, v.AvailablePower, upper-level)
		}
		level = b.MaxBatteryLevelEnd
	})
}

// Backward runs the minimum level sweep from the last activity, seeded with
// level kWh at its end.
func (e *Estimator) Backward(c *model.Chain, level float64) error {
	lower, upper := e.cfg.Lower(), e.cfg.Upper()
	level = e.cfg.clamp(level)
	return walk(c, false, func(a *model.Activity) {
		b := &a.Bounds
		b.MinBatteryLevelEnd = level
		switch v := a.Variant.(type) {
		case *model.Trip:
			b.MinBatteryLevelStartUnlimited = level + v.Drain
			b.MinBatteryLevelStart = math.Min(b.MinBatteryLevelStartUnlimited, upper)
			b.MinResidualNeed = math.Max(0, b.MinBatteryLevelStartUnlimited-upper)
		case *model.Park:
			b.MinBatteryLevelStartUnlimited = level - v.MaxChargeVolume
			b.MinBatteryLevelStart = math.Max(b.MinBatteryLevelStartUnlimited, lower)
			b.MinUndershoot = math.Max(0, lower-b.MinBatteryLevelStartUnlimited)
		}
		level = b.MinBatteryLevelStart
	})
}

// finish derives auxiliary fuel need and caps the minimum path at the
// maximum path so that min <= max holds for infeasible chains too.
func (e *Estimator) finish(c *model.Chain) {
	for i := range c.Activities {
		b := &c.Activities[i].Bounds
		b.MaxAuxiliaryFuelNeed = e.auxiliaryFuel(b.MaxResidualNeed)
		b.MinAuxiliaryFuelNeed = e.auxiliaryFuel(b.MinResidualNeed)
		b.MinBatteryLevelStart = math.Min(b.MinBatteryLevelStart, b.MaxBatteryLevelStart)
		b.MinBatteryLevelEnd = math.Min(b.MinBatteryLevelEnd, b.MaxBatteryLevelEnd)
	}
}

func (e *Estimator) auxiliaryFuel(residual float64) float64 {
	if residual == 0 {
		return 0
	}
	return residual * e.cfg.FuelConsumptionRate / e.cfg.ConsumptionRate
}

// chargingEnd returns when a park charging at power kW would add need kWh,
// clipped to the park end. It is nil without available power.
func chargingEnd(a *model.Activity, power, need float64) *time.Time {
	if power <= 0 {
		return nil
	}
	ts := a.End
	if h := need / power; h < a.Duration().Hours() {
		ts = a.Start.Add(time.Duration(h * float64(time.Hour)))
	}
	return &ts
}

// walk visits every activity once, following NextID links from the first
// activity when forward is true and PreviousID links from the last otherwise.
func walk(c *model.Chain, forward bool, visit func(a *model.Activity)) error {
	a := c.Last()
	if forward {
		a = c.First()
	}
	if a == nil {
		return fmt.Errorf("%w: %s has no end activity", ErrBrokenChain, c.Key())
	}
	seen := make(map[int]struct{}, len(c.Activities))
	for {
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("%w: %s revisits activity %d", ErrBrokenChain, c.Key(), a.ID)
		}
		seen[a.ID] = struct{}{}
		visit(a)

		var (
			next *model.Activity
			ok   bool
		)
		if forward {
			if !a.HasNext() {
				break
			}
			next, ok = c.Next(a)
		} else {
			if !a.HasPrevious() {
				break
			}
			next, ok = c.Previous(a)
		}
		if !ok {
			return fmt.Errorf("%w: %s activity %d links to a missing activity", ErrBrokenChain, c.Key(), a.ID)
		}
		a = next
	}
	if len(seen) != len(c.Activities) {
		return fmt.Errorf("%w: %s visited %d of %d activities", ErrBrokenChain, c.Key(), len(seen), len(c.Activities))
	}
	return nil
}
