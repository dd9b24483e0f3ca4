// Package tripsource reads trip records from flat files and groups them into
// per-vehicle horizon batches for the chain builder.
package tripsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/evflex/core/model"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

var required = []string{
	"vehicle_id", "trip_sequence_no", "timestamp_start", "timestamp_end", "distance", "purpose",
}

var layouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// Reader decodes trip CSV files. Timestamps without a zone are read in Location.
type Reader struct {
	Location *time.Location
}

// NewReader returns a Reader interpreting zone-less timestamps in loc. A nil
// loc means UTC.
func NewReader(loc *time.Location) *Reader {
	if loc == nil {
		loc = time.UTC
	}
	return &Reader{Location: loc}
}

// ReadFile reads all trips of the CSV file at path.
func (r *Reader) ReadFile(path string) ([]model.TripRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	trips, err := r.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trips, nil
}

// Read decodes every record of src. The header row names the columns; the
// optional crosses_midnight column is derived from the timestamps when absent.
func (r *Reader) Read(src io.Reader) ([]model.TripRecord, error) {
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var trips []model.TripRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t, err := r.decode(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trips = append(trips, t)
	}
	return trips, nil
}

func (r *Reader) decode(rec []string, cols map[string]int) (model.TripRecord, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var t model.TripRecord
	var err error
	t.VehicleID = get("vehicle_id")
	if t.SequenceNo, err = strconv.Atoi(get("trip_sequence_no")); err != nil {
		return t, fmt.Errorf("trip_sequence_no: %w", err)
	}
	if t.Start, err = r.parseTime(get("timestamp_start")); err != nil {
		return t, fmt.Errorf("timestamp_start: %w", err)
	}
	if t.End, err = r.parseTime(get("timestamp_end")); err != nil {
		return t, fmt.Errorf("timestamp_end: %w", err)
	}
	if t.Distance, err = strconv.ParseFloat(get("distance"), 64); err != nil {
		return t, fmt.Errorf("distance: %w", err)
	}
	t.Purpose = model.Purpose(strings.ToUpper(get("purpose")))
	if t.Purpose == "" {
		t.Purpose = model.PurposeUnknown
	}
	t.Category = get("category")
	if v := get("crosses_midnight"); v != "" {
		if t.CrossesMidnight, err = parseBool(v); err != nil {
			return t, fmt.Errorf("crosses_midnight: %w", err)
		}
	} else {
		t.CrossesMidnight = model.CrossesDayBoundary(t.Start, t.End)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (r *Reader) parseTime(v string) (time.Time, error) {
	var firstErr error
	for _, layout := range layouts {
		ts, err := time.ParseInLocation(layout, v, r.Location)
		if err == nil {
			return ts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(v)
}

// Batch is the input of one chain build: the trips of one vehicle starting
// within one horizon window, ordered by day then sequence number. Start
// times are left for the chain builder to check.
type Batch struct {
	VehicleID string
	Start     time.Time
	Trips     []model.TripRecord
}

// Group splits trips by vehicle and into consecutive windows of horizonDays
// calendar days. A window opens at 00:00 of the first trip not yet assigned.
// Batches are ordered by vehicle id then window start.
func Group(trips []model.TripRecord, horizonDays int) []Batch {
	if horizonDays <= 0 {
		horizonDays = 1
	}
	byVehicle := make(map[string][]model.TripRecord)
	for _, t := range trips {
		byVehicle[t.VehicleID] = append(byVehicle[t.VehicleID], t)
	}
	ids := make([]string, 0, len(byVehicle))
	for id := range byVehicle {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Batch
	for _, id := range ids {
		ts := byVehicle[id]
		sort.SliceStable(ts, func(i, j int) bool {
			di, dj := model.StartOfDay(ts[i].Start), model.StartOfDay(ts[j].Start)
			if di.Equal(dj) {
				return ts[i].SequenceNo < ts[j].SequenceNo
			}
			return di.Before(dj)
		})
		for i := 0; i < len(ts); {
			start := model.StartOfDay(ts[i].Start)
			end := start.AddDate(0, 0, horizonDays)
			j := i
			for j < len(ts) && ts[j].Start.Before(end) {
				j++
			}
			out = append(out, Batch{VehicleID: id, Start: start, Trips: ts[i:j]})
			i = j
		}
	}
	return out
}
