package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTrips is returned when a vehicle has no trips to chain.
	ErrNoTrips = errors.New("no trips")
	// ErrInvalidTrip wraps a trip record that fails its own validation.
	ErrInvalidTrip = errors.New("invalid trip")
	// ErrUnsorted indicates trips are not in chronological order.
	ErrUnsorted = errors.New("trips not sorted by start")
	// ErrOverlap indicates two trips of a vehicle overlap in time.
	ErrOverlap = errors.New("overlapping trips")
	// ErrOutsideHorizon indicates a trip starts after the chain horizon.
	ErrOutsideHorizon = errors.New("trip outside chain horizon")
	// ErrBrokenChain indicates a built chain violates its structural invariants.
	ErrBrokenChain = errors.New("broken activity chain")
	// ErrDroppedDistance indicates overnight splitting discarded more distance
	// than tolerated.
	ErrDroppedDistance = errors.New("dropped distance above tolerance")
)

// VehicleError attaches the offending vehicle to a structural failure.
type VehicleError struct {
	VehicleID string
	Err       error
}

func (e *VehicleError) Error() string {
	return fmt.Sprintf("vehicle %s: %v", e.VehicleID, e.Err)
}

func (e *VehicleError) Unwrap() error { return e.Err }
