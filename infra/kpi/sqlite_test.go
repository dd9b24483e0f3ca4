package kpi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/kilianp07/evflex/core/metrics/kpi"
)

func TestSQLiteStoreAccumulatesPerDay(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kpi.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	d1 := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)
	d2 := d1.Add(24 * time.Hour)
	require.NoError(t, s.Add(core.Record{VehicleID: "v1", Date: d1, Chains: 1, DrainKWh: 10, UncontrolledChargingKWh: 4}))
	require.NoError(t, s.Add(core.Record{VehicleID: "v1", Date: d1.Add(3 * time.Hour), Chains: 1, DrainKWh: 6, ResidualNeedKWh: 2}))
	require.NoError(t, s.Add(core.Record{VehicleID: "v1", Date: d2, Chains: 1, DrainKWh: 5}))
	require.NoError(t, s.Add(core.Record{VehicleID: "v2", Date: d1, Chains: 1, DrainKWh: 1}))

	recs, err := s.Query("v1", d1, d2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Date.Equal(core.Day(d1)))
	assert.Equal(t, 2, recs[0].Chains)
	assert.InDelta(t, 16, recs[0].DrainKWh, 1e-9)
	assert.InDelta(t, 4, recs[0].UncontrolledChargingKWh, 1e-9)
	assert.InDelta(t, 2, recs[0].ResidualNeedKWh, 1e-9)
	assert.InDelta(t, 0.875, recs[0].ElectricShare(), 1e-9)
	assert.InDelta(t, 5, recs[1].DrainKWh, 1e-9)

	recs, err = s.Query("v1", d2, d2)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
