package chain

import (
	"fmt"
	"time"

	"github.com/kilianp07/evflex/core/model"
)

// Validate checks the structural invariants of a chain: it covers its horizon
// without gaps or overlaps, links are consistent with the order, the
// first/last flags sit on the ends and no two parks are adjacent.
//
//gocyclo:ignore
func Validate(c *model.Chain) error {
	acts := c.Activities
	if len(acts) == 0 {
		return fmt.Errorf("%w: empty chain", ErrBrokenChain)
	}
	if !acts[0].Start.Equal(c.Start) {
		return fmt.Errorf("%w: chain starts %s, horizon starts %s",
			ErrBrokenChain, acts[0].Start.Format(time.RFC3339), c.Start.Format(time.RFC3339))
	}
	if !acts[len(acts)-1].End.Equal(c.End) {
		return fmt.Errorf("%w: chain ends %s, horizon ends %s",
			ErrBrokenChain, acts[len(acts)-1].End.Format(time.RFC3339), c.End.Format(time.RFC3339))
	}
	for i := range acts {
		a := &acts[i]
		if a.Variant == nil {
			return fmt.Errorf("%w: activity %d has no variant", ErrBrokenChain, a.ID)
		}
		if !a.End.After(a.Start) {
			return fmt.Errorf("%w: activity %d has non-positive duration", ErrBrokenChain, a.ID)
		}
		if a.IsFirst != (i == 0) || a.IsLast != (i == len(acts)-1) {
			return fmt.Errorf("%w: activity %d first/last flags misplaced", ErrBrokenChain, a.ID)
		}
		if a.HasPrevious() == (i == 0) || a.HasNext() == (i == len(acts)-1) {
			return fmt.Errorf("%w: activity %d dangling link", ErrBrokenChain, a.ID)
		}
		if i == 0 {
			continue
		}
		prev := &acts[i-1]
		if !prev.End.Equal(a.Start) {
			return fmt.Errorf("%w: gap or overlap between activities %d and %d", ErrBrokenChain, prev.ID, a.ID)
		}
		if prev.NextID != a.ID || a.PreviousID != prev.ID {
			return fmt.Errorf("%w: activities %d and %d not linked", ErrBrokenChain, prev.ID, a.ID)
		}
		if prev.Kind() == model.KindPark && a.Kind() == model.KindPark {
			return fmt.Errorf("%w: adjacent parks %d and %d", ErrBrokenChain, prev.ID, a.ID)
		}
	}
	return nil
}
