package metrics

import (
	"time"

	"github.com/kilianp07/evflex/core/flex"
)

// FlexSummary is the estimation outcome of one chain to be recorded.
type FlexSummary struct {
	RunID   string
	Summary flex.Summary
	Time    time.Time
}

// MetricsSink records flexibility summaries for observability purposes.
type MetricsSink interface {
	RecordFlexSummary(summaries []FlexSummary) error
}

// ChainEvent describes one chain produced by the chain builder.
type ChainEvent struct {
	RunID     string
	VehicleID string
	Trips     int
	Parks     int
	Distance  float64
	Time      time.Time
}

// ChainRecorder records built chains.
type ChainRecorder interface {
	RecordChains(events []ChainEvent) error
}

// RunEvent summarizes a whole pipeline run.
type RunEvent struct {
	RunID                string
	Vehicles             int
	Chains               int
	Failed               int
	Filtered             int
	DroppedDistance      float64
	DroppedDistanceRatio float64
	Iterations           int
	Converged            bool
	Duration             time.Duration
	Time                 time.Time
}

// RunRecorder records run summaries.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordFlexSummary([]FlexSummary) error { return nil }
func (NopSink) RecordChains([]ChainEvent) error       { return nil }
func (NopSink) RecordRun(RunEvent) error              { return nil }
