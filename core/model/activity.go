package model

import "time"

// Kind distinguishes the two activity variants.
type Kind int

const (
	KindTrip Kind = iota
	KindPark
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTrip:
		return "trip"
	case KindPark:
		return "park"
	default:
		return "unknown"
	}
}

// Variant holds the kind specific part of an activity. It is implemented by
// *Trip and *Park only.
type Variant interface {
	Kind() Kind
	variant()
}

// Trip is the driving variant of an activity.
type Trip struct {
	TripID   int
	Distance float64 // km
	Drain    float64 // kWh, distance × consumption rate
}

func (*Trip) Kind() Kind { return KindTrip }
func (*Trip) variant()   {}

// Park is the parked variant of an activity. Power values are supplied by the
// charging availability provider.
type Park struct {
	ParkID          int
	RatedPower      float64 // kW
	AvailablePower  float64 // kW
	MaxChargeVolume float64 // kWh, available power × duration
}

func (*Park) Kind() Kind { return KindPark }
func (*Park) variant()   {}

// NoActivity is the neighbour id of the first activity's predecessor and the
// last activity's successor.
const NoActivity = 0

// Activity is one node of a vehicle's chain.
type Activity struct {
	VehicleID  string
	ID         int
	Start      time.Time
	End        time.Time
	Purpose    Purpose
	IsFirst    bool
	IsLast     bool
	NextID     int
	PreviousID int
	Variant    Variant
	Bounds     BatteryBounds
}

// NewTripActivity returns an unlinked trip activity.
func NewTripActivity(vehicleID string, tripID int, start, end time.Time, distance float64, purpose Purpose) Activity {
	return Activity{
		VehicleID: vehicleID,
		Start:     start,
		End:       end,
		Purpose:   purpose,
		Variant:   &Trip{TripID: tripID, Distance: distance},
	}
}

// NewParkActivity returns an unlinked park activity.
func NewParkActivity(vehicleID string, parkID int, start, end time.Time, purpose Purpose) Activity {
	return Activity{
		VehicleID: vehicleID,
		Start:     start,
		End:       end,
		Purpose:   purpose,
		Variant:   &Park{ParkID: parkID},
	}
}

// Kind returns the variant kind of the activity.
func (a *Activity) Kind() Kind { return a.Variant.Kind() }

// Trip returns the trip part if the activity is a trip.
func (a *Activity) Trip() (*Trip, bool) {
	t, ok := a.Variant.(*Trip)
	return t, ok
}

// Park returns the park part if the activity is a park.
func (a *Activity) Park() (*Park, bool) {
	p, ok := a.Variant.(*Park)
	return p, ok
}

// Duration returns End - Start.
func (a *Activity) Duration() time.Duration { return a.End.Sub(a.Start) }

// HasNext reports whether the activity has a successor.
func (a *Activity) HasNext() bool { return a.NextID != NoActivity }

// HasPrevious reports whether the activity has a predecessor.
func (a *Activity) HasPrevious() bool { return a.PreviousID != NoActivity }

// Clone returns a deep copy; the variant is copied so the clone can be
// mutated independently.
func (a Activity) Clone() Activity {
	switch v := a.Variant.(type) {
	case *Trip:
		cp := *v
		a.Variant = &cp
	case *Park:
		cp := *v
		a.Variant = &cp
	}
	if a.Bounds.ChargingEnd != nil {
		ts := *a.Bounds.ChargingEnd
		a.Bounds.ChargingEnd = &ts
	}
	return a
}

// BatteryBounds is filled in by the flexibility estimator. Levels are in kWh.
// The *Unlimited fields hold the level before clamping to the battery window.
type BatteryBounds struct {
	MaxBatteryLevelStart          float64
	MaxBatteryLevelEnd            float64
	MaxBatteryLevelEndUnlimited   float64
	MinBatteryLevelStart          float64
	MinBatteryLevelEnd            float64
	MinBatteryLevelStartUnlimited float64

	MaxResidualNeed float64
	MinResidualNeed float64
	MaxOvershoot    float64
	MinUndershoot   float64

	UncontrolledCharging float64
	// ChargingEnd is nil when the park has no available power.
	ChargingEnd *time.Time

	MaxAuxiliaryFuelNeed float64
	MinAuxiliaryFuelNeed float64
}
