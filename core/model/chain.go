package model

import (
	"fmt"
	"time"
)

// Chain is the ordered activity sequence of one vehicle over its horizon.
// Activities are stored in chain order; neighbours are resolved through the
// NextID/PreviousID links and the id index.
type Chain struct {
	VehicleID  string
	Category   string
	Start      time.Time
	End        time.Time
	Activities []Activity

	index map[int]int
}

// Reindex rebuilds the id lookup table. It must be called after the
// Activities slice is replaced or reordered.
func (c *Chain) Reindex() {
	c.index = make(map[int]int, len(c.Activities))
	for i := range c.Activities {
		c.index[c.Activities[i].ID] = i
	}
}

// Lookup returns the activity with the given id.
func (c *Chain) Lookup(id int) (*Activity, bool) {
	if c.index == nil {
		c.Reindex()
	}
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return &c.Activities[i], true
}

// First returns the activity flagged as first, or nil for an empty chain.
func (c *Chain) First() *Activity {
	for i := range c.Activities {
		if c.Activities[i].IsFirst {
			return &c.Activities[i]
		}
	}
	return nil
}

// Last returns the activity flagged as last, or nil for an empty chain.
func (c *Chain) Last() *Activity {
	for i := len(c.Activities) - 1; i >= 0; i-- {
		if c.Activities[i].IsLast {
			return &c.Activities[i]
		}
	}
	return nil
}

// Next follows the NextID link of a.
func (c *Chain) Next(a *Activity) (*Activity, bool) {
	if !a.HasNext() {
		return nil, false
	}
	return c.Lookup(a.NextID)
}

// Previous follows the PreviousID link of a.
func (c *Chain) Previous(a *Activity) (*Activity, bool) {
	if !a.HasPrevious() {
		return nil, false
	}
	return c.Lookup(a.PreviousID)
}

// Days returns the number of calendar days the chain covers.
func (c *Chain) Days() int {
	return int(c.End.Sub(c.Start).Round(time.Hour) / (24 * time.Hour))
}

// Week returns the ISO year and week of the chain start.
func (c *Chain) Week() (year, week int) { return c.Start.ISOWeek() }

// Key identifies the chain for logging.
func (c *Chain) Key() string {
	return fmt.Sprintf("%s@%s", c.VehicleID, c.Start.Format("2006-01-02"))
}

// Distance sums the distance of all trips in the chain.
func (c *Chain) Distance() float64 {
	var sum float64
	for i := range c.Activities {
		if t, ok := c.Activities[i].Trip(); ok {
			sum += t.Distance
		}
	}
	return sum
}

// Trips extracts the trips of the chain as records, in chain order. Trips of
// a built chain never cross the horizon end.
func (c *Chain) Trips() []TripRecord {
	var out []TripRecord
	for i := range c.Activities {
		a := &c.Activities[i]
		t, ok := a.Trip()
		if !ok {
			continue
		}
		out = append(out, TripRecord{
			VehicleID:  a.VehicleID,
			SequenceNo: t.TripID,
			Start:      a.Start,
			End:        a.End,
			Distance:   t.Distance,
			Purpose:    a.Purpose,
		})
	}
	return out
}

// HasResidualNeed reports whether any activity could not be served by the
// battery alone on either sweep.
func (c *Chain) HasResidualNeed() bool {
	for i := range c.Activities {
		b := c.Activities[i].Bounds
		if b.MaxResidualNeed != 0 || b.MinResidualNeed != 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the chain.
func (c *Chain) Clone() *Chain {
	cp := &Chain{
		VehicleID:  c.VehicleID,
		Category:   c.Category,
		Start:      c.Start,
		End:        c.End,
		Activities: make([]Activity, len(c.Activities)),
	}
	for i := range c.Activities {
		cp.Activities[i] = c.Activities[i].Clone()
	}
	cp.Reindex()
	return cp
}
