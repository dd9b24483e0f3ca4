package profile

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/evflex/core/model"
)

// Slot holds the values of one time slot. Energies are in kWh, power in kW,
// battery levels in kWh at the end of the slot.
type Slot struct {
	Start                time.Time `json:"timeslot"`
	UncontrolledCharging float64   `json:"uncontrolled_charging"`
	Drain                float64   `json:"drain"`
	AvailablePower       float64   `json:"available_power"`
	MaxBatteryLevel      float64   `json:"max_battery_level"`
	MinBatteryLevel      float64   `json:"min_battery_level"`
}

// Profile is the slotted view of one estimated chain.
type Profile struct {
	VehicleID    string        `json:"vehicle_id"`
	SlotDuration time.Duration `json:"slot_duration"`
	Slots        []Slot        `json:"slots"`
}

// Discretize resamples an estimated chain into fixed slots starting at the
// chain start.
func Discretize(c *model.Chain, slot time.Duration) (*Profile, error) {
	if slot <= 0 {
		return nil, errors.New("slot duration must be positive")
	}
	span := c.End.Sub(c.Start)
	if span%slot != 0 {
		return nil, fmt.Errorf("slot duration %s does not divide chain span %s", slot, span)
	}
	n := int(span / slot)
	p := &Profile{VehicleID: c.VehicleID, SlotDuration: slot, Slots: make([]Slot, n)}

	// activities are contiguous and sorted, so one cursor serves all slots
	cur := 0
	for i := range p.Slots {
		s := &p.Slots[i]
		s.Start = c.Start.Add(time.Duration(i) * slot)
		end := s.Start.Add(slot)
		for j := cur; j < len(c.Activities); j++ {
			a := &c.Activities[j]
			if !a.Start.Before(end) {
				break
			}
			accumulate(s, a, end, slot)
		}
		for cur < len(c.Activities) && !c.Activities[cur].End.After(end) {
			cur++
		}
		levelsAt(s, c, cur, end)
	}
	return p, nil
}

func accumulate(s *Slot, a *model.Activity, end time.Time, slot time.Duration) {
	ov := overlap(s.Start, end, a.Start, a.End)
	if ov <= 0 {
		return
	}
	switch v := a.Variant.(type) {
	case *model.Trip:
		s.Drain += v.Drain * float64(ov) / float64(a.Duration())
	case *model.Park:
		s.AvailablePower += v.AvailablePower * float64(ov) / float64(slot)
		if ce := a.Bounds.ChargingEnd; ce != nil {
			s.UncontrolledCharging += v.AvailablePower * overlap(s.Start, end, a.Start, *ce).Hours()
		}
	}
}

// levelsAt sets the battery levels at t, which falls inside activity idx or
// at the chain end.
func levelsAt(s *Slot, c *model.Chain, idx int, t time.Time) {
	if idx >= len(c.Activities) {
		last := c.Activities[len(c.Activities)-1].Bounds
		s.MaxBatteryLevel = last.MaxBatteryLevelEnd
		s.MinBatteryLevel = last.MinBatteryLevelEnd
		return
	}
	a := &c.Activities[idx]
	b := a.Bounds
	elapsed := t.Sub(a.Start).Hours()
	frac := elapsed / a.Duration().Hours()
	park, isPark := a.Park()
	if !isPark {
		s.MaxBatteryLevel = b.MaxBatteryLevelStart + frac*(b.MaxBatteryLevelEnd-b.MaxBatteryLevelStart)
		s.MinBatteryLevel = b.MinBatteryLevelStart + frac*(b.MinBatteryLevelEnd-b.MinBatteryLevelStart)
		return
	}
	// greedy charging for the max path, latest possible charging for the min path
	remaining := a.End.Sub(t).Hours()
	s.MaxBatteryLevel = math.Min(b.MaxBatteryLevelStart+park.AvailablePower*elapsed, b.MaxBatteryLevelEnd)
	s.MinBatteryLevel = math.Max(b.MinBatteryLevelStart, b.MinBatteryLevelEnd-park.AvailablePower*remaining)
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start, end := aStart, aEnd
	if bStart.After(start) {
		start = bStart
	}
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// Total returns the sum of a slot field over the profile.
func (p *Profile) Total(field func(Slot) float64) float64 {
	vals := make([]float64, len(p.Slots))
	for i, s := range p.Slots {
		vals[i] = field(s)
	}
	return floats.Sum(vals)
}

// FleetSlot aggregates one slot across vehicles.
type FleetSlot struct {
	Start                time.Time `json:"timeslot"`
	Vehicles             int       `json:"vehicles"`
	UncontrolledCharging float64   `json:"uncontrolled_charging"`
	Drain                float64   `json:"drain"`
	AvailablePower       float64   `json:"available_power"`
	MeanMaxBatteryLevel  float64   `json:"mean_max_battery_level"`
	MeanMinBatteryLevel  float64   `json:"mean_min_battery_level"`
}

// Aggregate sums energies and power and averages battery levels per slot.
// All profiles must share the same slots.
func Aggregate(profiles []*Profile) ([]FleetSlot, error) {
	if len(profiles) == 0 {
		return nil, nil
	}
	ref := profiles[0]
	for _, p := range profiles[1:] {
		if p.SlotDuration != ref.SlotDuration || len(p.Slots) != len(ref.Slots) || !p.Slots[0].Start.Equal(ref.Slots[0].Start) {
			return nil, fmt.Errorf("profile of %s does not share the slots of %s", p.VehicleID, ref.VehicleID)
		}
	}
	out := make([]FleetSlot, len(ref.Slots))
	col := make([]float64, len(profiles))
	column := func(i int, field func(Slot) float64) []float64 {
		for k, p := range profiles {
			col[k] = field(p.Slots[i])
		}
		return col
	}
	for i := range out {
		out[i] = FleetSlot{
			Start:                ref.Slots[i].Start,
			Vehicles:             len(profiles),
			UncontrolledCharging: floats.Sum(column(i, func(s Slot) float64 { return s.UncontrolledCharging })),
			Drain:                floats.Sum(column(i, func(s Slot) float64 { return s.Drain })),
			AvailablePower:       floats.Sum(column(i, func(s Slot) float64 { return s.AvailablePower })),
			MeanMaxBatteryLevel:  stat.Mean(column(i, func(s Slot) float64 { return s.MaxBatteryLevel }), nil),
			MeanMinBatteryLevel:  stat.Mean(column(i, func(s Slot) float64 { return s.MinBatteryLevel }), nil),
		}
	}
	return out, nil
}
