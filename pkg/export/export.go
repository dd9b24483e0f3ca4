// Package export writes estimation results as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/evflex/core/model"
	"github.com/kilianp07/evflex/core/profile"
)

// Format selects the encoding of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// RowHeader lists the CSV columns of WriteRowsCSV.
var RowHeader = []string{
	"vehicle_id", "activity_id", "trip_id", "park_id", "timestamp_start", "timestamp_end",
	"duration", "purpose", "is_first_activity", "is_last_activity",
	"next_activity_id", "previous_activity_id", "distance", "drain",
	"rated_power", "available_power", "max_charge_volume",
	"max_battery_level_start", "max_battery_level_end",
	"min_battery_level_start", "min_battery_level_end",
	"max_residual_need", "min_residual_need", "max_overshoot", "min_undershoot",
	"uncontrolled_charging", "charging_end_timestamp",
	"max_auxiliary_fuel_need", "min_auxiliary_fuel_need",
}

// WriteRows writes the activity table in the given format.
func WriteRows(w io.Writer, f Format, rows []model.ActivityRow) error {
	if f == FormatJSON {
		return WriteJSON(w, rows)
	}
	return WriteRowsCSV(w, rows)
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRowsCSV writes the activity table with RowHeader. Missing ids and
// charging end timestamps are written as empty cells.
func WriteRowsCSV(w io.Writer, rows []model.ActivityRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RowHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.VehicleID,
			strconv.Itoa(r.ActivityID),
			optInt(r.TripID),
			optInt(r.ParkID),
			r.Start.Format(time.RFC3339),
			r.End.Format(time.RFC3339),
			num(r.Duration),
			string(r.Purpose),
			strconv.FormatBool(r.IsFirst),
			strconv.FormatBool(r.IsLast),
			optInt(r.NextID),
			optInt(r.PreviousID),
			num(r.Distance),
			num(r.Drain),
			num(r.RatedPower),
			num(r.AvailablePower),
			num(r.MaxChargeVolume),
			num(r.MaxBatteryLevelStart),
			num(r.MaxBatteryLevelEnd),
			num(r.MinBatteryLevelStart),
			num(r.MinBatteryLevelEnd),
			num(r.MaxResidualNeed),
			num(r.MinResidualNeed),
			num(r.MaxOvershoot),
			num(r.MinUndershoot),
			num(r.UncontrolledCharging),
			optTime(r.ChargingEnd),
			num(r.MaxAuxiliaryFuelNeed),
			num(r.MinAuxiliaryFuelNeed),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteProfilesCSV writes one line per vehicle and slot.
func WriteProfilesCSV(w io.Writer, profiles []*profile.Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"vehicle_id", "timeslot", "uncontrolled_charging", "drain", "available_power", "max_battery_level", "min_battery_level"}); err != nil {
		return err
	}
	for _, p := range profiles {
		for _, s := range p.Slots {
			rec := []string{
				p.VehicleID,
				s.Start.Format(time.RFC3339),
				num(s.UncontrolledCharging),
				num(s.Drain),
				num(s.AvailablePower),
				num(s.MaxBatteryLevel),
				num(s.MinBatteryLevel),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFleetCSV writes the aggregated fleet profile.
func WriteFleetCSV(w io.Writer, slots []profile.FleetSlot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timeslot", "vehicles", "uncontrolled_charging", "drain", "available_power", "mean_max_battery_level", "mean_min_battery_level"}); err != nil {
		return err
	}
	for _, s := range slots {
		rec := []string{
			s.Start.Format(time.RFC3339),
			strconv.Itoa(s.Vehicles),
			num(s.UncontrolledCharging),
			num(s.Drain),
			num(s.AvailablePower),
			num(s.MeanMaxBatteryLevel),
			num(s.MeanMinBatteryLevel),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
