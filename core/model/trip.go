package model

import (
	"fmt"
	"time"
)

// Purpose labels why a trip was made. Parks inherit the purpose of the trip
// that brought the vehicle there.
type Purpose string

const (
	PurposeHome     Purpose = "HOME"
	PurposeWork     Purpose = "WORK"
	PurposeSchool   Purpose = "SCHOOL"
	PurposeShopping Purpose = "SHOPPING"
	PurposeLeisure  Purpose = "LEISURE"
	PurposeErrands  Purpose = "ERRANDS"
	PurposeBusiness Purpose = "BUSINESS"
	PurposeUnknown  Purpose = "UNKNOWN"
)

// TripRecord is one observed trip of a vehicle as delivered by the trip source.
type TripRecord struct {
	VehicleID       string    `json:"vehicle_id"`
	SequenceNo      int       `json:"trip_sequence_no"`
	Start           time.Time `json:"timestamp_start"`
	End             time.Time `json:"timestamp_end"`
	Distance        float64   `json:"distance"` // km
	Purpose         Purpose   `json:"purpose"`
	CrossesMidnight bool      `json:"crosses_midnight"`
	Category        string    `json:"category,omitempty"`
}

// Duration returns the wall-clock length of the trip.
func (t TripRecord) Duration() time.Duration { return t.End.Sub(t.Start) }

// Validate checks the record on its own. Ordering against neighbours is the
// chain builder's job.
func (t TripRecord) Validate() error {
	if t.VehicleID == "" {
		return fmt.Errorf("trip %d: vehicle id is required", t.SequenceNo)
	}
	if !t.End.After(t.Start) {
		return fmt.Errorf("trip %d of %s: end %s not after start %s",
			t.SequenceNo, t.VehicleID, t.End.Format(time.RFC3339), t.Start.Format(time.RFC3339))
	}
	if t.Distance < 0 {
		return fmt.Errorf("trip %d of %s: negative distance %v", t.SequenceNo, t.VehicleID, t.Distance)
	}
	return nil
}

// StartOfDay returns 00:00 of the calendar day t falls on, in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CrossesDayBoundary reports whether a trip starting at start and ending at
// end runs past the midnight following start. A trip ending exactly at that
// midnight does not cross it.
func CrossesDayBoundary(start, end time.Time) bool {
	midnight := StartOfDay(start).AddDate(0, 0, 1)
	return end.After(midnight)
}
