package chain

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/evflex/core/logger"
	"github.com/kilianp07/evflex/core/model"
)

// Builder turns one vehicle's trips into a gap-free activity chain.
// A Builder holds no per-vehicle state and may be shared by goroutines.
type Builder struct {
	cfg    Config
	ledger *Ledger
	log    logger.Logger
}

// NewBuilder returns a Builder. A nil ledger gets a fresh one and a nil
// logger discards output.
func NewBuilder(cfg Config, ledger *Ledger, log logger.Logger) *Builder {
	cfg.SetDefaults()
	if ledger == nil {
		ledger = NewLedger()
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Builder{cfg: cfg, ledger: ledger, log: log}
}

// Ledger returns the distance ledger shared by all builds.
func (b *Builder) Ledger() *Ledger { return b.ledger }

// CheckDroppedDistance applies the dropped distance tolerance to everything
// built so far.
func (b *Builder) CheckDroppedDistance() error {
	return b.ledger.Check(b.cfg.DroppedDistanceTolerance)
}

// Build converts the trips of one vehicle into a chain covering
// cfg.HorizonDays days from 00:00 of the first trip's day. Trips must be
// sorted by start, numbered in that order within each day, and must not
// overlap.
func (b *Builder) Build(trips []model.TripRecord) (*model.Chain, error) {
	if len(trips) == 0 {
		return nil, ErrNoTrips
	}
	vid := trips[0].VehicleID
	start := model.StartOfDay(trips[0].Start)
	end := start.AddDate(0, 0, b.cfg.HorizonDays)
	if err := checkTrips(trips, end); err != nil {
		b.log.Errorf("vehicle %s: %v", vid, err)
		return nil, &VehicleError{VehicleID: vid, Err: err}
	}
	acts := skeleton(trips, start, end, b.cfg.DefaultStartPurpose)
	var dropped float64

	last := trips[len(trips)-1]
	if overnight(last, end) {
		if b.cfg.SplitOvernightTrips {
			acts, dropped = b.splitOvernight(acts, start, end)
		} else {
			acts = dropOvernight(acts, end)
			b.log.Debugw("overnight trip dropped", map[string]any{
				"vehicle_id": vid, "trip_id": last.SequenceNo, "distance": last.Distance,
			})
		}
	} else if last.CrossesMidnight {
		b.log.Debugw("trip flagged overnight ends on horizon boundary", map[string]any{
			"vehicle_id": vid, "trip_id": last.SequenceNo,
		})
	}

	acts = dropDegenerate(acts)
	c := &model.Chain{VehicleID: vid, Category: trips[0].Category, Start: start, End: end, Activities: acts}
	link(c)
	if err := Validate(c); err != nil {
		b.log.Errorf("vehicle %s: %v", vid, err)
		return nil, &VehicleError{VehicleID: vid, Err: err}
	}
	for _, t := range trips {
		b.ledger.AddTotal(t.Distance)
	}
	if dropped > 0 {
		b.ledger.AddDropped(dropped)
	}
	return c, nil
}

// overnight reports whether the trip ends after the horizon end. A trip ending
// exactly on the boundary is never overnight.
func overnight(t model.TripRecord, end time.Time) bool {
	return t.End.After(end)
}

func checkTrips(trips []model.TripRecord, end time.Time) error {
	vid := trips[0].VehicleID
	for i, t := range trips {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTrip, err)
		}
		if t.VehicleID != vid {
			return fmt.Errorf("%w: trip %d belongs to %s", ErrInvalidTrip, t.SequenceNo, t.VehicleID)
		}
		if !t.Start.Before(end) {
			return fmt.Errorf("%w: trip %d starts %s, horizon ends %s",
				ErrOutsideHorizon, t.SequenceNo, t.Start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		if i == 0 {
			continue
		}
		prev := trips[i-1]
		sameDay := model.StartOfDay(t.Start).Equal(model.StartOfDay(prev.Start))
		if sameDay && t.SequenceNo <= prev.SequenceNo {
			return fmt.Errorf("%w: trip %d follows trip %d", ErrUnsorted, t.SequenceNo, prev.SequenceNo)
		}
		if t.Start.Before(prev.Start) {
			return fmt.Errorf("%w: trip %d starts before trip %d", ErrUnsorted, t.SequenceNo, prev.SequenceNo)
		}
		if t.Start.Before(prev.End) {
			return fmt.Errorf("%w: trip %d starts before trip %d ends", ErrOverlap, t.SequenceNo, prev.SequenceNo)
		}
	}
	return nil
}

// skeleton interleaves parks with the trips: one park before the first trip
// and one after every trip. Each park takes the id of the trip before it and
// spans the gap to the next trip or the horizon end.
func skeleton(trips []model.TripRecord, start, end time.Time, startPurpose model.Purpose) []model.Activity {
	vid := trips[0].VehicleID
	acts := make([]model.Activity, 0, 2*len(trips)+1)
	acts = append(acts, model.NewParkActivity(vid, 0, start, trips[0].Start, startPurpose))
	for i, t := range trips {
		acts = append(acts, model.NewTripActivity(vid, t.SequenceNo, t.Start, t.End, t.Distance, t.Purpose))
		parkEnd := end
		if i+1 < len(trips) {
			parkEnd = trips[i+1].Start
		}
		acts = append(acts, model.NewParkActivity(vid, t.SequenceNo, t.End, parkEnd, t.Purpose))
	}
	return acts
}

// dropOvernight removes the overnight trip and its trailing park and stretches
// the park before it to the horizon end.
func dropOvernight(acts []model.Activity, end time.Time) []model.Activity {
	acts = acts[:len(acts)-2]
	acts[len(acts)-1].End = end
	return acts
}

// dropDegenerate removes parks of zero length.
func dropDegenerate(acts []model.Activity) []model.Activity {
	out := acts[:0]
	for _, a := range acts {
		if a.Kind() == model.KindPark && !a.End.After(a.Start) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// link sorts the activities and assigns ids, neighbour links and the
// first/last flags.
func link(c *model.Chain) {
	acts := c.Activities
	sort.SliceStable(acts, func(i, j int) bool { return acts[i].Start.Before(acts[j].Start) })
	for i := range acts {
		a := &acts[i]
		a.ID = i + 1
		a.PreviousID = model.NoActivity
		a.NextID = model.NoActivity
		if i > 0 {
			a.PreviousID = i
		}
		if i+1 < len(acts) {
			a.NextID = i + 2
		}
		a.IsFirst = i == 0
		a.IsLast = i == len(acts)-1
	}
	c.Reindex()
}
