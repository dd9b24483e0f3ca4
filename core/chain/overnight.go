package chain

import (
	"time"

	"github.com/kilianp07/evflex/core/model"
)

// MorningTripID is the trip id given to the morning part of a split trip.
const MorningTripID = 0

// splitOvernight resolves the trip crossing the horizon end. The evening part
// keeps the original start and ends on the boundary; the morning part wraps
// to the head of the same chain, from the horizon start to the original end
// shifted back by the horizon length. Distance is shared by time.
//
// acts must be the skeleton, ending with the overnight trip and its park.
// dropped is the distance of a discarded morning shard.
func (b *Builder) splitOvernight(acts []model.Activity, start, end time.Time) (out []model.Activity, dropped float64) {
	n := len(acts)
	trip := &acts[n-2]
	t, _ := trip.Trip()

	total := trip.Duration()
	morningEnd := trip.End.Add(-end.Sub(start))
	evening := end.Sub(trip.Start)
	eveningDist := t.Distance * float64(evening) / float64(total)
	morningDist := t.Distance - eveningDist

	trip.End = end
	t.Distance = eveningDist
	// trailing park now spans [end,end] and is dropped as degenerate
	acts[n-1].Start = end

	first := &acts[1]
	head := &acts[0]
	switch {
	case morningEnd.After(first.Start):
		// an earlier recorded trip supersedes the morning shard
		b.log.Debugw("morning shard overlaps first trip, dropped", map[string]any{
			"vehicle_id": trip.VehicleID,
			"trip_id":    t.TripID,
			"distance":   morningDist,
		})
		return acts, morningDist
	case morningEnd.Equal(first.Start):
		ft, _ := first.Trip()
		ft.Distance += morningDist
		first.Start = start
		head.End = start
		b.log.Debugw("morning shard merged into first trip", map[string]any{
			"vehicle_id": trip.VehicleID,
			"trip_id":    ft.TripID,
			"distance":   morningDist,
		})
		return acts, 0
	}

	morning := model.NewTripActivity(trip.VehicleID, MorningTripID, start, morningEnd, morningDist, trip.Purpose)
	head.Start = morningEnd
	head.Purpose = trip.Purpose
	return append([]model.Activity{morning}, acts...), 0
}
