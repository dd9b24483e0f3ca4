package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evflex/core/profile"
)

func TestWriteFleetChart(t *testing.T) {
	start := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	slots := []profile.FleetSlot{
		{Start: start, Vehicles: 2, UncontrolledCharging: 4.5, AvailablePower: 22},
		{Start: start.Add(time.Hour), Vehicles: 2, Drain: 3},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFleetChart(&buf, slots))
	html := buf.String()
	assert.True(t, strings.Contains(html, "evflex fleet profile"))
	assert.True(t, strings.Contains(html, "uncontrolled charging"))
	assert.True(t, strings.Contains(html, "2025-03-04 01:00"))
}
