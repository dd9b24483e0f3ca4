package chain

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Ledger accumulates trip distance and the distance discarded by the
// overnight splitter. It is safe for concurrent use by several builders.
type Ledger struct {
	total   atomic.Uint64
	dropped atomic.Uint64
	drops   atomic.Int64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger { return &Ledger{} }

func addFloat(v *atomic.Uint64, delta float64) {
	for {
		old := v.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if v.CompareAndSwap(old, next) {
			return
		}
	}
}

// AddTotal records distance of filtered input trips.
func (l *Ledger) AddTotal(km float64) { addFloat(&l.total, km) }

// AddDropped records a discarded morning shard.
func (l *Ledger) AddDropped(km float64) {
	addFloat(&l.dropped, km)
	l.drops.Add(1)
}

// Total returns the accumulated input distance.
func (l *Ledger) Total() float64 { return math.Float64frombits(l.total.Load()) }

// Dropped returns the accumulated discarded distance.
func (l *Ledger) Dropped() float64 { return math.Float64frombits(l.dropped.Load()) }

// Drops returns how many morning shards were discarded.
func (l *Ledger) Drops() int64 { return l.drops.Load() }

// Ratio returns dropped / total, or 0 when no distance was recorded.
func (l *Ledger) Ratio() float64 {
	total := l.Total()
	if total == 0 {
		return 0
	}
	return l.Dropped() / total
}

// Check fails when the dropped share reaches tolerance.
func (l *Ledger) Check(tolerance float64) error {
	if r := l.Ratio(); r >= tolerance {
		return fmt.Errorf("%w: %.3f of %.1f km (%.2f%%, tolerance %.2f%%)",
			ErrDroppedDistance, l.Dropped(), l.Total(), r*100, tolerance*100)
	}
	return nil
}
