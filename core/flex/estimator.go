package flex

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/evflex/core/logger"
	"github.com/kilianp07/evflex/core/model"
)

// Estimator bounds the battery level of every activity of a set of chains.
// Chains are independent; sweeps over distinct chains run concurrently.
type Estimator struct {
	cfg Config
	log logger.Logger
}

// Result describes one estimation run.
type Result struct {
	// Chains are the estimated chains left after fuel need filtering.
	Chains []*model.Chain
	// Filtered lists the group keys removed for residual need.
	Filtered   []string
	Iterations int
	Converged  bool
	// MaxDelta and MinDelta are the summed gaps between the last end level
	// and the first start level of every chain, per path.
	MaxDelta float64
	MinDelta float64
}

// NewEstimator validates cfg and returns an Estimator.
func NewEstimator(cfg Config, log logger.Logger) (*Estimator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Estimator{cfg: cfg, log: log}, nil
}

// Config returns the effective configuration.
func (e *Estimator) Config() Config { return e.cfg }

// Estimate annotates the chains in place with their battery bounds. The
// chains must carry available power on their parks.
func (e *Estimator) Estimate(ctx context.Context, chains []*model.Chain) (*Result, error) {
	res := &Result{}
	if err := e.each(ctx, chains, func(_ int, c *model.Chain) error {
		e.Prepare(c)
		return nil
	}); err != nil {
		return nil, err
	}

	switch e.cfg.Mode {
	case ModeIterative:
		if err := e.iterate(ctx, chains, res); err != nil {
			return nil, err
		}
	default:
		start, end := e.cfg.StartLevel(), e.cfg.EndLevel()
		if err := e.each(ctx, chains, func(_ int, c *model.Chain) error {
			if err := e.Forward(c, start); err != nil {
				return err
			}
			return e.Backward(c, end)
		}); err != nil {
			return nil, err
		}
		res.Iterations = 1
		res.Converged = true
		res.MaxDelta, res.MinDelta = deltas(chains)
	}

	for _, c := range chains {
		e.finish(c)
	}
	res.Chains = chains
	if e.cfg.FilterFuelNeed {
		res.Chains, res.Filtered = Filter(chains, e.cfg.GroupBy)
		if len(res.Filtered) > 0 {
			e.log.Infof("filtered %d groups with residual need", len(res.Filtered))
		}
	}
	return res, nil
}

// each applies fn to every chain using at most cfg.Workers goroutines. The
// first failure is logged with its vehicle and returned.
func (e *Estimator) each(ctx context.Context, chains []*model.Chain, fn func(i int, c *model.Chain) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, c := range chains {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i, c); err != nil {
				e.log.Errorf("vehicle %s: %v", c.VehicleID, err)
				return fmt.Errorf("vehicle %s: %w", c.VehicleID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
