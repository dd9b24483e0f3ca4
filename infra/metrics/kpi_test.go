package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evflex/core/flex"
	core "github.com/kilianp07/evflex/core/metrics"
	"github.com/kilianp07/evflex/core/metrics/kpi"
)

func TestKPISinkAccumulatesDailyRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := kpi.NewMemoryStore()
	sink, err := NewKPISink(store, reg)
	require.NoError(t, err)

	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	err = sink.RecordFlexSummary([]core.FlexSummary{
		{RunID: "r", Summary: flex.Summary{VehicleID: "v1", Day: day, Drain: 10, UncontrolledCharging: 5}},
		{RunID: "r", Summary: flex.Summary{VehicleID: "v1", Day: day, Drain: 10, MaxResidualNeed: 5}},
	})
	require.NoError(t, err)

	recs, err := store.Query("v1", day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].Chains)

	assert.InDelta(t, 20, testutil.ToFloat64(sink.drain.WithLabelValues("v1", "2025-03-04")), 1e-9)
	assert.InDelta(t, 0.75, testutil.ToFloat64(sink.share.WithLabelValues("v1", "2025-03-04")), 1e-9)
	assert.InDelta(t, 0.25, testutil.ToFloat64(sink.charging.WithLabelValues("v1", "2025-03-04")), 1e-9)

	again, err := NewKPISink(store, reg)
	require.NoError(t, err)
	assert.Same(t, sink.drain, again.drain)
}

type failingQueryStore struct {
	*kpi.MemoryStore
}

func (failingQueryStore) Query(string, time.Time, time.Time) ([]kpi.Record, error) {
	return nil, errors.New("query failed")
}

func TestKPISinkReturnsQueryError(t *testing.T) {
	sink, err := NewKPISink(failingQueryStore{kpi.NewMemoryStore()}, prometheus.NewRegistry())
	require.NoError(t, err)
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	err = sink.RecordFlexSummary([]core.FlexSummary{
		{RunID: "r", Summary: flex.Summary{VehicleID: "v1", Day: day, Drain: 10}},
	})
	require.EqualError(t, err, "query failed")
}
