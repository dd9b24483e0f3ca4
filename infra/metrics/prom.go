package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/evflex/core/metrics"
)

// PromSink records flexibility results in Prometheus metrics.
type PromSink struct {
	summaries    *prometheus.CounterVec
	uncontrolled *prometheus.HistogramVec
	residual     *prometheus.HistogramVec
	activities   *prometheus.CounterVec
	dropped      prometheus.Gauge
	iterations   prometheus.Gauge
	converged    prometheus.Gauge
}

// NewPromSink registers flexibility metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evflex_chains_estimated_total",
			Help: "Total number of chains with estimated battery bounds",
		}, []string{"electrifiable"}),
		uncontrolled: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evflex_uncontrolled_charging_kwh",
			Help:    "Uncontrolled charging energy per chain",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"electrifiable"}),
		residual: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evflex_residual_need_kwh",
			Help:    "Maximum path residual need per chain",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}, []string{"electrifiable"}),
		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evflex_activities_total",
			Help: "Total number of activities in built chains",
		}, []string{"kind"}),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evflex_dropped_distance_ratio",
			Help: "Share of trip distance discarded by the overnight splitter in the last run",
		}),
		iterations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evflex_flex_iterations",
			Help: "Sweep iterations of the last run",
		}),
		converged: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evflex_flex_converged",
			Help: "1 if the last run converged",
		}),
	}

	var err error
	if s.summaries, err = registerCollector(reg, s.summaries); err != nil {
		return nil, err
	}
	if s.uncontrolled, err = registerCollector(reg, s.uncontrolled); err != nil {
		return nil, err
	}
	if s.residual, err = registerCollector(reg, s.residual); err != nil {
		return nil, err
	}
	if s.activities, err = registerCollector(reg, s.activities); err != nil {
		return nil, err
	}
	if s.dropped, err = registerCollector(reg, s.dropped); err != nil {
		return nil, err
	}
	if s.iterations, err = registerCollector(reg, s.iterations); err != nil {
		return nil, err
	}
	if s.converged, err = registerCollector(reg, s.converged); err != nil {
		return nil, err
	}
	return s, nil
}

// registerCollector registers c, reusing the collector already registered
// under the same descriptor.
func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordFlexSummary counts the chains and observes their energies.
func (s *PromSink) RecordFlexSummary(res []coremetrics.FlexSummary) error {
	for _, r := range res {
		label := strconv.FormatBool(r.Summary.Electrifiable)
		s.summaries.WithLabelValues(label).Inc()
		s.uncontrolled.WithLabelValues(label).Observe(r.Summary.UncontrolledCharging)
		s.residual.WithLabelValues(label).Observe(r.Summary.MaxResidualNeed)
	}
	return nil
}

// RecordChains counts the activities of built chains by kind.
func (s *PromSink) RecordChains(evs []coremetrics.ChainEvent) error {
	for _, ev := range evs {
		s.activities.WithLabelValues("trip").Add(float64(ev.Trips))
		s.activities.WithLabelValues("park").Add(float64(ev.Parks))
	}
	return nil
}

// RecordRun sets the run gauges.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.dropped.Set(ev.DroppedDistanceRatio)
	s.iterations.Set(float64(ev.Iterations))
	if ev.Converged {
		s.converged.Set(1)
	} else {
		s.converged.Set(0)
	}
	return nil
}
