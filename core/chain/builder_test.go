package chain

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evflex/core/model"
)

var day = time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func trip(seq int, start, end time.Time, km float64) model.TripRecord {
	return model.TripRecord{
		VehicleID:       "v1",
		SequenceNo:      seq,
		Start:           start,
		End:             end,
		Distance:        km,
		Purpose:         model.PurposeWork,
		CrossesMidnight: model.CrossesDayBoundary(start, end),
	}
}

func totalDuration(c *model.Chain) time.Duration {
	var d time.Duration
	for i := range c.Activities {
		d += c.Activities[i].Duration()
	}
	return d
}

func TestBuildTwoTripsWithoutSplit(t *testing.T) {
	b := NewBuilder(Config{}, nil, nil)
	c, err := b.Build([]model.TripRecord{
		trip(1, at(8, 0), at(9, 0), 12),
		trip(2, at(17, 0), at(18, 0), 10),
	})
	require.NoError(t, err)
	require.Len(t, c.Activities, 5)

	checks := []struct {
		kind       model.Kind
		start, end time.Time
	}{
		{model.KindPark, at(0, 0), at(8, 0)},
		{model.KindTrip, at(8, 0), at(9, 0)},
		{model.KindPark, at(9, 0), at(17, 0)},
		{model.KindTrip, at(17, 0), at(18, 0)},
		{model.KindPark, at(18, 0), at(24, 0)},
	}
	for i, want := range checks {
		a := c.Activities[i]
		assert.Equal(t, want.kind, a.Kind(), "activity %d kind", i)
		assert.True(t, want.start.Equal(a.Start), "activity %d start %s", i, a.Start)
		assert.True(t, want.end.Equal(a.End), "activity %d end %s", i, a.End)
	}
	assert.True(t, c.Activities[0].IsFirst)
	assert.False(t, c.Activities[0].HasPrevious())
	assert.True(t, c.Activities[4].IsLast)
	assert.False(t, c.Activities[4].HasNext())
	assert.Equal(t, model.PurposeHome, c.Activities[0].Purpose)
	assert.Equal(t, 24*time.Hour, totalDuration(c))
	assert.Equal(t, 1, c.Days())
}

func TestBuildLinksFollowOrder(t *testing.T) {
	b := NewBuilder(Config{}, nil, nil)
	c, err := b.Build([]model.TripRecord{
		trip(1, at(6, 30), at(7, 15), 20),
		trip(2, at(12, 0), at(12, 30), 5),
		trip(3, at(16, 0), at(17, 0), 25),
	})
	require.NoError(t, err)
	for i := 0; i+1 < len(c.Activities); i++ {
		cur, next := &c.Activities[i], &c.Activities[i+1]
		assert.Equal(t, next.ID, cur.NextID)
		assert.Equal(t, cur.ID, next.PreviousID)
		assert.True(t, cur.End.Equal(next.Start))
		got, ok := c.Next(cur)
		require.True(t, ok)
		assert.Equal(t, next.ID, got.ID)
	}
	for _, a := range c.Activities {
		_, isTrip := a.Trip()
		_, isPark := a.Park()
		assert.True(t, isTrip != isPark, "activity %d must be exactly one variant", a.ID)
	}
}

func TestBuildSplitsOvernightTrip(t *testing.T) {
	b := NewBuilder(Config{SplitOvernightTrips: true}, nil, nil)
	c, err := b.Build([]model.TripRecord{trip(1, at(23, 0), at(26, 0), 100)})
	require.NoError(t, err)
	require.Len(t, c.Activities, 3)

	morning, ok := c.Activities[0].Trip()
	require.True(t, ok)
	assert.Equal(t, MorningTripID, morning.TripID)
	assert.True(t, c.Activities[0].Start.Equal(at(0, 0)))
	assert.True(t, c.Activities[0].End.Equal(at(2, 0)))
	assert.InDelta(t, 66.667, morning.Distance, 1e-3)
	assert.True(t, c.Activities[0].IsFirst)

	park, ok := c.Activities[1].Park()
	require.True(t, ok)
	assert.Equal(t, 0, park.ParkID)
	assert.Equal(t, model.PurposeWork, c.Activities[1].Purpose)
	assert.True(t, c.Activities[1].Start.Equal(at(2, 0)))

	evening, ok := c.Activities[2].Trip()
	require.True(t, ok)
	assert.Equal(t, 1, evening.TripID)
	assert.InDelta(t, 33.333, evening.Distance, 1e-3)
	assert.True(t, c.Activities[2].End.Equal(at(24, 0)))
	assert.True(t, c.Activities[2].IsLast)

	assert.InDelta(t, 100, c.Distance(), 1e-9)
	assert.Equal(t, 24*time.Hour, totalDuration(c))
	assert.Zero(t, b.Ledger().Dropped())
}

func TestBuildDropsOvernightTripWhenSplitDisabled(t *testing.T) {
	b := NewBuilder(Config{}, nil, nil)
	c, err := b.Build([]model.TripRecord{
		trip(1, at(8, 0), at(9, 0), 12),
		trip(2, at(23, 0), at(25, 0), 40),
	})
	require.NoError(t, err)
	require.Len(t, c.Activities, 3)
	last := c.Activities[2]
	assert.Equal(t, model.KindPark, last.Kind())
	assert.True(t, last.IsLast)
	assert.True(t, last.End.Equal(at(24, 0)))
	assert.InDelta(t, 12, c.Distance(), 1e-9)
	assert.Zero(t, b.Ledger().Dropped())
}

func TestSplitDropsMorningShardOverlappingFirstTrip(t *testing.T) {
	b := NewBuilder(Config{SplitOvernightTrips: true}, nil, nil)
	c, err := b.Build([]model.TripRecord{
		trip(1, at(1, 0), at(2, 0), 10),
		trip(2, at(23, 0), at(27, 0), 40),
	})
	require.NoError(t, err)
	require.Len(t, c.Activities, 4)
	assert.Equal(t, model.KindPark, c.Activities[0].Kind())
	assert.True(t, c.Activities[0].End.Equal(at(1, 0)))
	evening, _ := c.Activities[3].Trip()
	assert.InDelta(t, 10, evening.Distance, 1e-9)

	assert.InDelta(t, 30, b.Ledger().Dropped(), 1e-9)
	assert.InDelta(t, 50, b.Ledger().Total(), 1e-9)
	assert.EqualValues(t, 1, b.Ledger().Drops())
	err = b.CheckDroppedDistance()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDroppedDistance))
}

func TestLedgerCountsOnlyBuiltChains(t *testing.T) {
	b := NewBuilder(Config{SplitOvernightTrips: true}, nil, nil)
	_, err := b.Build([]model.TripRecord{
		trip(1, at(8, 0), at(10, 0), 30),
		trip(2, at(9, 0), at(11, 0), 30),
	})
	require.Error(t, err)
	assert.Zero(t, b.Ledger().Total())
	assert.Zero(t, b.Ledger().Dropped())

	_, err = b.Build([]model.TripRecord{trip(1, at(8, 0), at(9, 0), 12)})
	require.NoError(t, err)
	assert.InDelta(t, 12, b.Ledger().Total(), 1e-9)
}

func TestSplitMergesAdjacentMorningShard(t *testing.T) {
	b := NewBuilder(Config{SplitOvernightTrips: true}, nil, nil)
	c, err := b.Build([]model.TripRecord{
		trip(1, at(7, 0), at(8, 0), 10),
		trip(2, at(22, 0), at(31, 0), 90),
	})
	require.NoError(t, err)
	require.Len(t, c.Activities, 3)

	first := c.Activities[0]
	ft, ok := first.Trip()
	require.True(t, ok)
	assert.Equal(t, 1, ft.TripID)
	assert.True(t, first.Start.Equal(at(0, 0)))
	assert.True(t, first.End.Equal(at(8, 0)))
	assert.InDelta(t, 80, ft.Distance, 1e-9)
	assert.InDelta(t, 100, c.Distance(), 1e-9)
	assert.NoError(t, b.CheckDroppedDistance())
}

func TestTripEndingAtMidnightIsNotOvernight(t *testing.T) {
	rec := trip(1, at(22, 0), at(24, 0), 30)
	rec.CrossesMidnight = true
	assert.False(t, model.CrossesDayBoundary(rec.Start, rec.End))

	b := NewBuilder(Config{SplitOvernightTrips: true}, nil, nil)
	c, err := b.Build([]model.TripRecord{rec})
	require.NoError(t, err)
	require.Len(t, c.Activities, 2)
	tr, ok := c.Activities[1].Trip()
	require.True(t, ok)
	assert.Equal(t, 1, tr.TripID)
	assert.InDelta(t, 30, tr.Distance, 1e-9)
	assert.True(t, c.Activities[1].IsLast)
}

func TestBuildRejectsInconsistentTrips(t *testing.T) {
	b := NewBuilder(Config{}, nil, nil)
	cases := []struct {
		name  string
		trips []model.TripRecord
		want  error
	}{
		{"unsorted", []model.TripRecord{trip(1, at(10, 0), at(11, 0), 1), trip(2, at(8, 0), at(9, 0), 1)}, ErrUnsorted},
		{"sequence", []model.TripRecord{trip(2, at(8, 0), at(9, 0), 1), trip(1, at(10, 0), at(11, 0), 1)}, ErrUnsorted},
		{"overlap", []model.TripRecord{trip(1, at(8, 0), at(10, 0), 1), trip(2, at(9, 0), at(11, 0), 1)}, ErrOverlap},
		{"reversed", []model.TripRecord{trip(1, at(9, 0), at(8, 0), 1)}, ErrInvalidTrip},
		{"outside", []model.TripRecord{trip(1, at(8, 0), at(9, 0), 1), trip(2, at(25, 0), at(26, 0), 1)}, ErrOutsideHorizon},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.Build(tc.trips)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			var verr *VehicleError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "v1", verr.VehicleID)
		})
	}
	_, err := b.Build(nil)
	assert.ErrorIs(t, err, ErrNoTrips)
}

func TestRebuildFromExtractedTripsIsIdempotent(t *testing.T) {
	for _, split := range []bool{false, true} {
		b := NewBuilder(Config{SplitOvernightTrips: split}, nil, nil)
		c, err := b.Build([]model.TripRecord{
			trip(1, at(7, 0), at(7, 45), 15),
			trip(2, at(12, 0), at(12, 20), 4),
			trip(3, at(22, 30), at(25, 30), 60),
		})
		require.NoError(t, err)
		again, err := b.Build(c.Trips())
		require.NoError(t, err)
		assert.Equal(t, c.Rows(), again.Rows(), "split=%v", split)
	}
}

func TestBuildMultiDayHorizon(t *testing.T) {
	b := NewBuilder(Config{HorizonDays: 7, SplitOvernightTrips: true}, nil, nil)
	c, err := b.Build([]model.TripRecord{
		trip(1, at(8, 0), at(9, 0), 20),
		trip(2, at(24+8, 0), at(24+9, 0), 20),
		trip(3, at(6*24+23, 0), at(7*24+1, 0), 30),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, c.Days())
	assert.Equal(t, 7*24*time.Hour, totalDuration(c))
	assert.Equal(t, model.KindTrip, c.Activities[0].Kind())
	assert.True(t, c.Activities[0].End.Equal(at(1, 0)))
	assert.InDelta(t, 70, c.Distance(), 1e-9)
	assert.NoError(t, Validate(c))
}

func TestValidateDetectsGap(t *testing.T) {
	b := NewBuilder(Config{}, nil, nil)
	c, err := b.Build([]model.TripRecord{trip(1, at(8, 0), at(9, 0), 12)})
	require.NoError(t, err)
	c.Activities[1].End = at(9, 30)
	assert.ErrorIs(t, Validate(c), ErrBrokenChain)
}

func TestLedgerConcurrentAccumulation(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.AddTotal(100)
			l.AddDropped(0.5)
		}()
	}
	wg.Wait()
	assert.InDelta(t, 5000, l.Total(), 1e-9)
	assert.InDelta(t, 25, l.Dropped(), 1e-9)
	assert.InDelta(t, 0.005, l.Ratio(), 1e-12)
	assert.NoError(t, l.Check(0.01))
	assert.ErrorIs(t, l.Check(0.005), ErrDroppedDistance)
}
