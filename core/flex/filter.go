package flex

import (
	"fmt"

	"github.com/kilianp07/evflex/core/model"
)

// GroupKey returns the filtering key of a chain.
func GroupKey(c *model.Chain, by GroupBy) string {
	if by == GroupByCategoryWeek {
		year, week := c.Week()
		return fmt.Sprintf("%s/%d-W%02d", c.Category, year, week)
	}
	return c.VehicleID
}

// Filter removes every chain whose group contains a chain with nonzero
// residual need on either path. It returns the kept chains in input order
// and the removed group keys in first-seen order.
func Filter(chains []*model.Chain, by GroupBy) (kept []*model.Chain, dropped []string) {
	bad := make(map[string]bool)
	for _, c := range chains {
		key := GroupKey(c, by)
		if c.HasResidualNeed() && !bad[key] {
			bad[key] = true
			dropped = append(dropped, key)
		}
	}
	kept = make([]*model.Chain, 0, len(chains))
	for _, c := range chains {
		if !bad[GroupKey(c, by)] {
			kept = append(kept, c)
		}
	}
	return kept, dropped
}
