package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/evflex/core/flex"
	coremetrics "github.com/kilianp07/evflex/core/metrics"
)

type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bodyRecorder) handler(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.bodies = append(b.bodies, strings.TrimSpace(string(data)))
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func TestInfluxSink_RecordFlexSummary(t *testing.T) {
	rec := &bodyRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	ev := coremetrics.FlexSummary{
		RunID: "r1",
		Summary: flex.Summary{
			VehicleID:            "veh1",
			Day:                  day,
			Distance:             42,
			Drain:                8.4,
			ChargeVolume:         165,
			UncontrolledCharging: 8.4,
			Electrifiable:        true,
		},
	}
	if err := sink.RecordFlexSummary([]coremetrics.FlexSummary{ev}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("flex_summary").
		AddTag("vehicle_id", "veh1").
		AddTag("run_id", "r1").
		AddTag("electrifiable", "true").
		AddField("distance_km", 42.0).
		AddField("drain_kwh", 8.4).
		AddField("charge_volume_kwh", 165.0).
		AddField("uncontrolled_charging_kwh", 8.4).
		AddField("max_residual_need_kwh", 0.0).
		AddField("min_residual_need_kwh", 0.0).
		AddField("max_auxiliary_fuel_need", 0.0).
		SetTime(day)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}

	if err := sink.RecordFlexSummary(nil); err != nil {
		t.Fatalf("empty record: %v", err)
	}
	if len(rec.bodies) != 1 {
		t.Errorf("empty batch should not be written")
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	rec := &bodyRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.RunEvent{RunID: "r1", Vehicles: 3, Chains: 3, Iterations: 1, Converged: true, Duration: 1500 * time.Millisecond, Time: now}
	if err := sink.RecordRun(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(rec.bodies) != 1 || !strings.HasPrefix(rec.bodies[0], "flex_run,") {
		t.Fatalf("bodies: %#v", rec.bodies)
	}
	for _, want := range []string{"run_id=r1", "converged=true", "vehicles=3i", "duration_ms=1500i"} {
		if !strings.Contains(rec.bodies[0], want) {
			t.Errorf("missing %q in %s", want, rec.bodies[0])
		}
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
