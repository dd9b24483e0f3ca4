package availability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evflex/core/chain"
	"github.com/kilianp07/evflex/core/model"
)

func testChain(t *testing.T) *model.Chain {
	t.Helper()
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	b := chain.NewBuilder(chain.Config{}, nil, nil)
	c, err := b.Build([]model.TripRecord{
		{VehicleID: "v1", SequenceNo: 1, Start: day.Add(8 * time.Hour), End: day.Add(9 * time.Hour), Distance: 20, Purpose: model.PurposeWork},
		{VehicleID: "v1", SequenceNo: 2, Start: day.Add(17 * time.Hour), End: day.Add(17*time.Hour + 30*time.Minute), Distance: 5, Purpose: model.PurposeShopping},
		{VehicleID: "v1", SequenceNo: 3, Start: day.Add(17*time.Hour + 40*time.Minute), End: day.Add(18 * time.Hour), Distance: 5, Purpose: model.PurposeHome},
	})
	require.NoError(t, err)
	return c
}

func TestAnnotateAssignsPowerByPurpose(t *testing.T) {
	p, err := New(Config{
		RatedPower:        map[model.Purpose]float64{"home": 11, model.PurposeWork: 22},
		DefaultRatedPower: 3.7,
		Efficiency:        0.9,
		MinParkingMinutes: 15,
	})
	require.NoError(t, err)

	c := testChain(t)
	p.Annotate(c)

	checks := []struct {
		idx       int
		rated     float64
		available float64
	}{
		{0, 11, 9.9},  // HOME
		{2, 22, 19.8}, // WORK
		{4, 3.7, 0},   // SHOPPING, 10 minutes
		{6, 11, 9.9},  // HOME
	}
	for _, tc := range checks {
		park, ok := c.Activities[tc.idx].Park()
		require.True(t, ok, "activity %d", tc.idx)
		assert.InDelta(t, tc.rated, park.RatedPower, 1e-9, "activity %d", tc.idx)
		assert.InDelta(t, tc.available, park.AvailablePower, 1e-9, "activity %d", tc.idx)
	}
}

func TestDefaultsAndValidation(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, 11.0, p.RatedPower(model.PurposeHome))
	assert.Zero(t, p.RatedPower(model.PurposeLeisure))

	_, err = New(Config{Efficiency: 1.5})
	assert.Error(t, err)
	_, err = New(Config{RatedPower: map[model.Purpose]float64{model.PurposeWork: -1}})
	assert.Error(t, err)
}

func TestLoadTableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "power.yaml")
	data := "rated_power:\n  HOME: 7.4\n  WORK: 22\ndefault_rated_power: 2.3\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	p, err := New(Config{TableFile: path})
	require.NoError(t, err)
	assert.Equal(t, 7.4, p.RatedPower(model.PurposeHome))
	assert.Equal(t, 22.0, p.RatedPower(model.PurposeWork))
	assert.Equal(t, 2.3, p.RatedPower(model.PurposeErrands))

	_, err = New(Config{TableFile: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}

func TestDecodeTable(t *testing.T) {
	tbl, err := DecodeTable(bytes.NewBufferString(`{"rated_power":{"SCHOOL":3.7}}`), "json")
	require.NoError(t, err)
	assert.Equal(t, 3.7, tbl.RatedPower[model.PurposeSchool])

	_, err = DecodeTable(bytes.NewBufferString("{}"), "toml")
	assert.Error(t, err)
	_, err = DecodeTable(bytes.NewBufferString(":"), "yaml")
	assert.Error(t, err)
}
