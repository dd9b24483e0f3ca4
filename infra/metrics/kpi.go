package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	core "github.com/kilianp07/evflex/core/metrics"
	"github.com/kilianp07/evflex/core/metrics/kpi"
)

// KPISink accumulates flexibility summaries into daily KPI records.
type KPISink struct {
	store    kpi.Store
	drain    *prometheus.GaugeVec
	share    *prometheus.GaugeVec
	charging *prometheus.GaugeVec
}

// NewKPISink creates a sink with Prometheus gauges registered on reg.
func NewKPISink(store kpi.Store, reg prometheus.Registerer) (*KPISink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &KPISink{
		store: store,
		drain: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vehicle_daily_drain_kwh",
			Help: "Daily driving energy per vehicle",
		}, []string{"vehicle_id", "day"}),
		share: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vehicle_electric_share",
			Help: "Daily share of drain covered by the battery",
		}, []string{"vehicle_id", "day"}),
		charging: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vehicle_charging_ratio",
			Help: "Daily uncontrolled charging per unit of drain",
		}, []string{"vehicle_id", "day"}),
	}
	var err error
	if s.drain, err = registerCollector(reg, s.drain); err != nil {
		return nil, err
	}
	if s.share, err = registerCollector(reg, s.share); err != nil {
		return nil, err
	}
	if s.charging, err = registerCollector(reg, s.charging); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordFlexSummary adds each summary to its vehicle's daily record and
// refreshes the gauges.
func (s *KPISink) RecordFlexSummary(res []core.FlexSummary) error {
	for _, r := range res {
		sum := r.Summary
		rec := kpi.Record{
			VehicleID:               sum.VehicleID,
			Date:                    sum.Day,
			Chains:                  1,
			DrainKWh:                sum.Drain,
			UncontrolledChargingKWh: sum.UncontrolledCharging,
			ResidualNeedKWh:         sum.MaxResidualNeed,
		}
		if err := s.store.Add(rec); err != nil {
			return err
		}
		records, err := s.store.Query(rec.VehicleID, rec.Date, rec.Date)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			continue
		}
		rr := records[0]
		dayStr := kpi.Day(rec.Date).Format("2006-01-02")
		s.drain.WithLabelValues(rec.VehicleID, dayStr).Set(rr.DrainKWh)
		s.share.WithLabelValues(rec.VehicleID, dayStr).Set(rr.ElectricShare())
		s.charging.WithLabelValues(rec.VehicleID, dayStr).Set(rr.ChargingRatio())
	}
	return nil
}

// Close closes the store when it supports it.
func (s *KPISink) Close() error {
	if c, ok := s.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
