package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/evflex/app/plugins"
	"github.com/kilianp07/evflex/config"
	"github.com/kilianp07/evflex/core/availability"
	"github.com/kilianp07/evflex/core/chain"
	"github.com/kilianp07/evflex/core/flex"
	coremetrics "github.com/kilianp07/evflex/core/metrics"
	"github.com/kilianp07/evflex/core/model"
	"github.com/kilianp07/evflex/core/monitoring"
	"github.com/kilianp07/evflex/core/profile"
	"github.com/kilianp07/evflex/core/store"
	"github.com/kilianp07/evflex/infra/logger"
	"github.com/kilianp07/evflex/infra/mqtt"
	"github.com/kilianp07/evflex/infra/tripsource"
)

// Failure records a vehicle whose chain could not be built.
type Failure struct {
	VehicleID string
	Start     time.Time
	Err       error
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID     string
	Vehicles  int
	Built     int
	Failures  []Failure
	Chains    []*model.Chain
	Flex      *flex.Result
	Profiles  []*profile.Profile
	Fleet     map[time.Time][]profile.FleetSlot
	Dropped   float64
	DropRatio float64
	Duration  time.Duration
}

// Rows flattens the estimated chains.
func (r *Report) Rows() []model.ActivityRow {
	var rows []model.ActivityRow
	for _, c := range r.Chains {
		rows = append(rows, c.Rows()...)
	}
	return rows
}

// Pipeline turns trip records into estimated chains, profiles and metrics.
type Pipeline struct {
	cfg       *config.Config
	provider  *availability.Provider
	estimator *flex.Estimator
	sink      coremetrics.MetricsSink
	store     store.Store
	log       logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New builds a pipeline with explicit collaborators. A nil sink discards
// metrics and a nil store disables persistence.
func New(cfg *config.Config, sink coremetrics.MetricsSink, st store.Store, log logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	provider, err := availability.New(cfg.Availability)
	if err != nil {
		return nil, fmt.Errorf("availability: %w", err)
	}
	est, err := flex.NewEstimator(cfg.Flex, log)
	if err != nil {
		return nil, fmt.Errorf("flex: %w", err)
	}
	return &Pipeline{
		cfg:       cfg,
		provider:  provider,
		estimator: est,
		sink:      sink,
		store:     st,
		log:       log,
		tracer:    otel.Tracer("github.com/kilianp07/evflex/app"),
		now:       time.Now,
	}, nil
}

// FromConfig builds the metrics sinks and the row store described by cfg.
func FromConfig(cfg *config.Config) (*Pipeline, error) {
	log := logger.New("pipeline")
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewFlexPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt: %w", err)
		}
		sink = coremetrics.NewMultiSink(sink, pub)
	}

	var st store.Store
	if cfg.Store.Backend != "none" {
		f, ok := plugins.Stores[cfg.Store.Backend]
		if !ok {
			return nil, fmt.Errorf("unknown store backend %s", cfg.Store.Backend)
		}
		if st, err = f(cfg.Store.Options()); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	return New(cfg, sink, st, log)
}

// LoadTrips reads the configured input with the configured trip source.
func (p *Pipeline) LoadTrips() ([]model.TripRecord, error) {
	f, ok := plugins.TripSources[p.cfg.Pipeline.Source]
	if !ok {
		return nil, fmt.Errorf("unknown trip source %s", p.cfg.Pipeline.Source)
	}
	src, err := f(map[string]any{"timezone": p.cfg.Pipeline.Timezone})
	if err != nil {
		return nil, err
	}
	return src.Load(p.cfg.Pipeline.Input)
}

// BuildChains builds one chain per vehicle and horizon window. Vehicles with
// inconsistent trips are reported as failures; a dropped distance share
// above tolerance aborts the run.
func (p *Pipeline) BuildChains(ctx context.Context, trips []model.TripRecord) (*Report, error) {
	ctx, span := p.tracer.Start(ctx, "build_chains")
	defer span.End()

	rep := &Report{RunID: uuid.NewString()}
	batches := tripsource.Group(trips, p.cfg.Chain.HorizonDays)
	rep.Vehicles = len(batches)
	builder := chain.NewBuilder(p.cfg.Chain, nil, p.log)

	built := make([]*model.Chain, len(batches))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			defer monitoring.Recover()
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := builder.Build(b.Trips)
			if err != nil {
				var ve *chain.VehicleError
				if !errors.As(err, &ve) {
					return err
				}
				monitoring.CaptureVehicle("chain", b.VehicleID, err)
				mu.Lock()
				rep.Failures = append(rep.Failures, Failure{VehicleID: b.VehicleID, Start: b.Start, Err: err})
				mu.Unlock()
				return nil
			}
			built[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for _, c := range built {
		if c != nil {
			rep.Chains = append(rep.Chains, c)
		}
	}
	sort.Slice(rep.Failures, func(i, j int) bool {
		if rep.Failures[i].VehicleID == rep.Failures[j].VehicleID {
			return rep.Failures[i].Start.Before(rep.Failures[j].Start)
		}
		return rep.Failures[i].VehicleID < rep.Failures[j].VehicleID
	})
	rep.Built = len(rep.Chains)
	rep.Dropped = builder.Ledger().Dropped()
	rep.DropRatio = builder.Ledger().Ratio()
	span.SetAttributes(
		attribute.Int("vehicles", rep.Vehicles),
		attribute.Int("chains", rep.Built),
		attribute.Int("failed", len(rep.Failures)),
		attribute.Float64("dropped_distance_ratio", rep.DropRatio),
	)
	for _, f := range rep.Failures {
		p.log.Warnf("vehicle %s skipped: %v", f.VehicleID, f.Err)
	}
	if err := builder.CheckDroppedDistance(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return rep, nil
}

// Run executes the whole pipeline on trips.
func (p *Pipeline) Run(ctx context.Context, trips []model.TripRecord) (*Report, error) {
	started := p.now()
	ctx, span := p.tracer.Start(ctx, "run")
	defer span.End()

	rep, err := p.BuildChains(ctx, trips)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("run_id", rep.RunID))
	p.log.Infof("run %s: built %d of %d chains", rep.RunID, rep.Built, rep.Vehicles)
	if err := p.recordChains(rep, started); err != nil {
		p.log.Errorf("record chains: %v", err)
	}

	_, aspan := p.tracer.Start(ctx, "availability")
	for _, c := range rep.Chains {
		p.provider.Annotate(c)
	}
	aspan.End()

	ectx, espan := p.tracer.Start(ctx, "estimate")
	res, err := p.estimator.Estimate(ectx, rep.Chains)
	if err != nil {
		espan.SetStatus(codes.Error, err.Error())
		espan.End()
		monitoring.CaptureException(err, map[string]string{"module": "flex", "run_id": rep.RunID})
		return nil, err
	}
	espan.SetAttributes(
		attribute.Int("iterations", res.Iterations),
		attribute.Bool("converged", res.Converged),
		attribute.Int("filtered", len(res.Filtered)),
	)
	espan.End()
	rep.Flex = res
	rep.Chains = res.Chains

	if err := p.profiles(ctx, rep); err != nil {
		return nil, err
	}

	if p.store != nil {
		if err := p.store.Append(ctx, rep.RunID, rep.Rows()); err != nil {
			monitoring.CaptureException(err, map[string]string{"module": "store", "run_id": rep.RunID})
			return nil, fmt.Errorf("store: %w", err)
		}
	}

	rep.Duration = p.now().Sub(started)
	p.record(rep)
	return rep, nil
}

func (p *Pipeline) profiles(ctx context.Context, rep *Report) error {
	_, span := p.tracer.Start(ctx, "profile")
	defer span.End()

	slot := p.cfg.Profile.Slot()
	byStart := make(map[time.Time][]*profile.Profile)
	for _, c := range rep.Chains {
		prof, err := profile.Discretize(c, slot)
		if err != nil {
			return fmt.Errorf("profile %s: %w", c.Key(), err)
		}
		rep.Profiles = append(rep.Profiles, prof)
		byStart[c.Start] = append(byStart[c.Start], prof)
	}
	rep.Fleet = make(map[time.Time][]profile.FleetSlot, len(byStart))
	for start, profs := range byStart {
		fleet, err := profile.Aggregate(profs)
		if err != nil {
			return err
		}
		rep.Fleet[start] = fleet
	}
	return nil
}

func (p *Pipeline) recordChains(rep *Report, now time.Time) error {
	rec, ok := p.sink.(coremetrics.ChainRecorder)
	if !ok {
		return nil
	}
	evs := make([]coremetrics.ChainEvent, 0, len(rep.Chains))
	for _, c := range rep.Chains {
		ev := coremetrics.ChainEvent{RunID: rep.RunID, VehicleID: c.VehicleID, Distance: c.Distance(), Time: now}
		for i := range c.Activities {
			if c.Activities[i].Kind() == model.KindTrip {
				ev.Trips++
			} else {
				ev.Parks++
			}
		}
		evs = append(evs, ev)
	}
	return rec.RecordChains(evs)
}

// record pushes summaries and the run report to the sinks. Sink failures are
// logged and do not fail the run.
func (p *Pipeline) record(rep *Report) {
	now := p.now()
	sums := make([]coremetrics.FlexSummary, 0, len(rep.Chains))
	for _, c := range rep.Chains {
		sums = append(sums, coremetrics.FlexSummary{RunID: rep.RunID, Summary: flex.Summarize(c), Time: now})
	}
	tags := map[string]string{"module": "metrics", "run_id": rep.RunID}
	if err := p.sink.RecordFlexSummary(sums); err != nil {
		p.log.Errorf("record summaries: %v", err)
		monitoring.CaptureException(err, tags)
	}
	if rec, ok := p.sink.(coremetrics.RunRecorder); ok {
		if err := rec.RecordRun(rep.Event(now)); err != nil {
			p.log.Errorf("record run: %v", err)
			monitoring.CaptureException(err, tags)
		}
	}
}

// Event converts the report into a run event.
func (r *Report) Event(now time.Time) coremetrics.RunEvent {
	ev := coremetrics.RunEvent{
		RunID:                r.RunID,
		Vehicles:             r.Vehicles,
		Chains:               len(r.Chains),
		Failed:               len(r.Failures),
		DroppedDistance:      r.Dropped,
		DroppedDistanceRatio: r.DropRatio,
		Duration:             r.Duration,
		Time:                 now,
	}
	if r.Flex != nil {
		ev.Filtered = len(r.Flex.Filtered)
		ev.Iterations = r.Flex.Iterations
		ev.Converged = r.Flex.Converged
	}
	return ev
}

// Close releases the sinks and the store.
func (p *Pipeline) Close() error {
	var first error
	if c, ok := p.sink.(interface{ Close() error }); ok {
		first = c.Close()
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
