package export

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/evflex/core/profile"
)

// WriteFleetChart renders the fleet profile as a standalone HTML line chart
// with one series per aggregated quantity.
func WriteFleetChart(w io.Writer, slots []profile.FleetSlot) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "evflex fleet profile"}),
		charts.WithTitleOpts(opts.Title{Title: "Fleet profile"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Slot"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kWh / kW"}),
	)

	xAxis := make([]string, len(slots))
	series := map[string][]opts.LineData{}
	names := []string{"uncontrolled charging", "drain", "available power", "mean max level", "mean min level"}
	for i, s := range slots {
		xAxis[i] = s.Start.Format("2006-01-02 15:04")
		values := []float64{s.UncontrolledCharging, s.Drain, s.AvailablePower, s.MeanMaxBatteryLevel, s.MeanMinBatteryLevel}
		for j, name := range names {
			series[name] = append(series[name], opts.LineData{Value: values[j]})
		}
	}
	line.SetXAxis(xAxis)
	for _, name := range names {
		line.AddSeries(name, series[name])
	}
	return line.Render(w)
}
