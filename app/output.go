package app

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/kilianp07/evflex/core/profile"
	"github.com/kilianp07/evflex/pkg/export"
)

// WriteOutputs writes the activity table, the vehicle profiles, the fleet
// profile and its chart to the configured paths. "-" writes to stdout.
func (p *Pipeline) WriteOutputs(rep *Report, stdout io.Writer) error {
	format, err := export.ParseFormat(p.cfg.Output.Format)
	if err != nil {
		return err
	}
	out := p.cfg.Output
	if err := writeTo(out.Path, stdout, func(w io.Writer) error {
		return export.WriteRows(w, format, rep.Rows())
	}); err != nil {
		return fmt.Errorf("activities: %w", err)
	}
	if err := writeTo(out.ProfilePath, stdout, func(w io.Writer) error {
		if format == export.FormatJSON {
			return export.WriteJSON(w, rep.Profiles)
		}
		return export.WriteProfilesCSV(w, rep.Profiles)
	}); err != nil {
		return fmt.Errorf("profiles: %w", err)
	}
	if err := writeTo(out.FleetPath, stdout, func(w io.Writer) error {
		fleet := rep.FleetSlots()
		if format == export.FormatJSON {
			return export.WriteJSON(w, fleet)
		}
		return export.WriteFleetCSV(w, fleet)
	}); err != nil {
		return fmt.Errorf("fleet: %w", err)
	}
	if err := writeTo(out.ChartPath, stdout, func(w io.Writer) error {
		return export.WriteFleetChart(w, rep.FleetSlots())
	}); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	return nil
}

// FleetSlots returns the fleet profiles of all windows in time order.
func (r *Report) FleetSlots() []profile.FleetSlot {
	starts := make([]time.Time, 0, len(r.Fleet))
	for s := range r.Fleet {
		starts = append(starts, s)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	var out []profile.FleetSlot
	for _, s := range starts {
		out = append(out, r.Fleet[s]...)
	}
	return out
}

func writeTo(path string, stdout io.Writer, fn func(io.Writer) error) error {
	switch path {
	case "":
		return nil
	case "-":
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
