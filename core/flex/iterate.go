package flex

import (
	"context"
	"fmt"
	"math"

	"github.com/looplab/fsm"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/evflex/core/logger"
	"github.com/kilianp07/evflex/core/model"
)

// Iteration controller states.
const (
	StatePending   = "pending"
	StateForward   = "forward_swept"
	StateBackward  = "backward_swept"
	StateChecked   = "checked"
	StateConverged = "converged"
	StateExhausted = "exhausted"
)

// Iteration controller events.
const (
	EventSweepForward  = "sweep_forward"
	EventSweepBackward = "sweep_backward"
	EventCheck         = "check"
	EventConverge      = "converge"
	EventExhaust       = "exhaust"
)

// newController returns the state machine driving the iterative mode. The
// first round runs both sweeps; later rounds run one sweep before each check.
func newController(log logger.Logger) *fsm.FSM {
	return fsm.NewFSM(
		StatePending,
		fsm.Events{
			{Name: EventSweepForward, Src: []string{StatePending, StateChecked}, Dst: StateForward},
			{Name: EventSweepBackward, Src: []string{StateForward, StateChecked}, Dst: StateBackward},
			{Name: EventCheck, Src: []string{StateForward, StateBackward}, Dst: StateChecked},
			{Name: EventConverge, Src: []string{StateChecked}, Dst: StateConverged},
			{Name: EventExhaust, Src: []string{StateChecked}, Dst: StateExhausted},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				log.Debugw("flex iteration transition", map[string]any{
					"event": e.Event,
					"from":  e.Src,
					"to":    e.Dst,
				})
			},
		},
	)
}

// iterate couples the sweeps: each chain's forward sweep is seeded with its
// previous maximum end level and its backward sweep with its previous minimum
// start level. After the first round only the path with the larger delta is
// swept again. Both deltas must fall below epsilon × capacity × chains.
// Hitting MaxIterations is not an error.
func (e *Estimator) iterate(ctx context.Context, chains []*model.Chain, res *Result) error {
	ctl := newController(e.log)
	fire := func(event string) error {
		if err := ctl.Event(ctx, event); err != nil {
			return fmt.Errorf("iteration controller: %w", err)
		}
		return nil
	}

	n := len(chains)
	if n == 0 {
		res.Iterations, res.Converged = 1, true
		return nil
	}
	fwdSeed := make([]float64, n)
	bwdSeed := make([]float64, n)
	for i := range chains {
		fwdSeed[i] = e.cfg.StartLevel()
		bwdSeed[i] = e.cfg.EndLevel()
	}
	forward := func() error {
		if err := fire(EventSweepForward); err != nil {
			return err
		}
		return e.each(ctx, chains, func(i int, c *model.Chain) error { return e.Forward(c, fwdSeed[i]) })
	}
	backward := func() error {
		if err := fire(EventSweepBackward); err != nil {
			return err
		}
		return e.each(ctx, chains, func(i int, c *model.Chain) error { return e.Backward(c, bwdSeed[i]) })
	}

	threshold := e.cfg.EpsilonBatteryLevel * e.cfg.BatteryCapacity * float64(n)
	for res.Iterations = 1; ; res.Iterations++ {
		var err error
		switch {
		case res.Iterations == 1:
			if err = forward(); err == nil {
				err = backward()
			}
		case res.MaxDelta >= res.MinDelta:
			err = forward()
		default:
			err = backward()
		}
		if err != nil {
			return err
		}
		if err := fire(EventCheck); err != nil {
			return err
		}

		res.MaxDelta, res.MinDelta = deltas(chains)
		e.log.Debugw("flex iteration", map[string]any{
			"iteration": res.Iterations,
			"max_delta": res.MaxDelta,
			"min_delta": res.MinDelta,
			"threshold": threshold,
		})
		if res.MaxDelta < threshold && res.MinDelta < threshold {
			res.Converged = true
			return fire(EventConverge)
		}
		if res.Iterations >= e.cfg.MaxIterations {
			e.log.Warnf("flex iteration stopped after %d iterations: max delta %.4f, min delta %.4f, threshold %.4f",
				res.Iterations, res.MaxDelta, res.MinDelta, threshold)
			return fire(EventExhaust)
		}

		for i, c := range chains {
			fwdSeed[i] = c.Last().Bounds.MaxBatteryLevelEnd
			bwdSeed[i] = c.First().Bounds.MinBatteryLevelStart
		}
	}
}

// deltas sums, over all chains, the gap between the level at the end of the
// last activity and at the start of the first, for both paths.
func deltas(chains []*model.Chain) (maxDelta, minDelta float64) {
	dMax := make([]float64, len(chains))
	dMin := make([]float64, len(chains))
	for i, c := range chains {
		first, last := c.First(), c.Last()
		if first == nil || last == nil {
			continue
		}
		dMax[i] = math.Abs(last.Bounds.MaxBatteryLevelEnd - first.Bounds.MaxBatteryLevelStart)
		dMin[i] = math.Abs(last.Bounds.MinBatteryLevelEnd - first.Bounds.MinBatteryLevelStart)
	}
	return floats.Sum(dMax), floats.Sum(dMin)
}
