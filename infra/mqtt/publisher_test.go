package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evflex/core/factory"
	"github.com/kilianp07/evflex/core/flex"
	coremetrics "github.com/kilianp07/evflex/core/metrics"
)

type message struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	msgs         []message
	err          error
	disconnected bool
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, message{topic, payload})
	return nil
}

func (f *fakePublisher) Disconnect() { f.disconnected = true }

func TestFlexPublisherSummaries(t *testing.T) {
	fp := &fakePublisher{}
	p := newFlexPublisher(fp, "")
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	err := p.RecordFlexSummary([]coremetrics.FlexSummary{
		{RunID: "r1", Summary: flex.Summary{VehicleID: "v1", Distance: 42, Electrifiable: true}},
		{RunID: "r1", Summary: flex.Summary{VehicleID: "v2", MaxResidualNeed: 3}},
	})
	require.NoError(t, err)
	require.Len(t, fp.msgs, 2)
	assert.Equal(t, "evflex/vehicle/v1/flex", fp.msgs[0].topic)
	assert.Equal(t, "evflex/vehicle/v2/flex", fp.msgs[1].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fp.msgs[0].payload, &got))
	assert.Equal(t, "r1", got["run_id"])
	assert.Equal(t, "v1", got["vehicle_id"])
	assert.Equal(t, 42.0, got["distance"])
	assert.Equal(t, true, got["electrifiable"])
	assert.Equal(t, float64(now.UnixMilli()), got["timestamp"])
	assert.NotEmpty(t, got["message_id"])

	var other map[string]any
	require.NoError(t, json.Unmarshal(fp.msgs[1].payload, &other))
	assert.NotEqual(t, got["message_id"], other["message_id"])
}

func TestFlexPublisherRunAndClose(t *testing.T) {
	fp := &fakePublisher{}
	p := newFlexPublisher(fp, "fleet")
	require.NoError(t, p.RecordRun(coremetrics.RunEvent{RunID: "r1", Vehicles: 2, Converged: true, Duration: time.Second}))
	require.Len(t, fp.msgs, 1)
	assert.Equal(t, "fleet/run", fp.msgs[0].topic)

	var got runMessage
	require.NoError(t, json.Unmarshal(fp.msgs[0].payload, &got))
	assert.Equal(t, 2, got.Vehicles)
	assert.True(t, got.Converged)
	assert.Equal(t, int64(1000), got.DurationMS)

	require.NoError(t, p.Close())
	assert.True(t, fp.disconnected)
}

func TestFlexPublisherPropagatesErrors(t *testing.T) {
	fp := &fakePublisher{err: errors.New("broker down")}
	p := newFlexPublisher(fp, "")
	err := p.RecordFlexSummary([]coremetrics.FlexSummary{{Summary: flex.Summary{VehicleID: "v1"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evflex/vehicle/v1/flex")
}

func TestMQTTSinkRegistered(t *testing.T) {
	_, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "mqtt", Conf: map[string]any{"qos": "bad"}}})
	require.Error(t, err)
}
