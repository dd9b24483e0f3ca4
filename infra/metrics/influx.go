package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/evflex/core/metrics"
	"github.com/kilianp07/evflex/infra/logger"
)

// InfluxSink writes flexibility results to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordFlexSummary writes one flex_summary point per chain.
func (s *InfluxSink) RecordFlexSummary(res []coremetrics.FlexSummary) error {
	if len(res) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(res))
	for _, r := range res {
		points = append(points, summaryPoint(r))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func summaryPoint(r coremetrics.FlexSummary) *write.Point {
	sum := r.Summary
	return write.NewPointWithMeasurement("flex_summary").
		AddTag("vehicle_id", sum.VehicleID).
		AddTag("run_id", r.RunID).
		AddTag("electrifiable", strconv.FormatBool(sum.Electrifiable)).
		AddField("distance_km", round3(sum.Distance)).
		AddField("drain_kwh", round3(sum.Drain)).
		AddField("charge_volume_kwh", round3(sum.ChargeVolume)).
		AddField("uncontrolled_charging_kwh", round3(sum.UncontrolledCharging)).
		AddField("max_residual_need_kwh", round3(sum.MaxResidualNeed)).
		AddField("min_residual_need_kwh", round3(sum.MinResidualNeed)).
		AddField("max_auxiliary_fuel_need", round3(sum.MaxAuxiliaryFuelNeed)).
		SetTime(sum.Day)
}

// RecordRun writes the run summary.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("flex_run").
		AddTag("run_id", ev.RunID).
		AddTag("converged", strconv.FormatBool(ev.Converged)).
		AddField("vehicles", ev.Vehicles).
		AddField("chains", ev.Chains).
		AddField("failed", ev.Failed).
		AddField("filtered", ev.Filtered).
		AddField("iterations", ev.Iterations).
		AddField("dropped_distance_km", round3(ev.DroppedDistance)).
		AddField("dropped_distance_ratio", ev.DroppedDistanceRatio).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
