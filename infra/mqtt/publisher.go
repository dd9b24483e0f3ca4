package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/evflex/core/factory"
	"github.com/kilianp07/evflex/core/flex"
	coremetrics "github.com/kilianp07/evflex/core/metrics"
)

// DefaultTopicPrefix is used when Config.TopicPrefix is empty.
const DefaultTopicPrefix = "evflex"

type publisher interface {
	Publish(topic string, payload []byte) error
	Disconnect()
}

// FlexPublisher publishes flexibility results as JSON messages. Summaries go
// to <prefix>/vehicle/<id>/flex and run reports to <prefix>/run.
type FlexPublisher struct {
	cli    publisher
	prefix string
	now    func() time.Time
}

type summaryMessage struct {
	MessageID string `json:"message_id"`
	RunID     string `json:"run_id"`
	flex.Summary
	Timestamp int64 `json:"timestamp"`
}

type runMessage struct {
	MessageID            string  `json:"message_id"`
	RunID                string  `json:"run_id"`
	Vehicles             int     `json:"vehicles"`
	Chains               int     `json:"chains"`
	Failed               int     `json:"failed"`
	Filtered             int     `json:"filtered"`
	DroppedDistance      float64 `json:"dropped_distance"`
	DroppedDistanceRatio float64 `json:"dropped_distance_ratio"`
	Iterations           int     `json:"iterations"`
	Converged            bool    `json:"converged"`
	DurationMS           int64   `json:"duration_ms"`
	Timestamp            int64   `json:"timestamp"`
}

// NewFlexPublisher connects to the broker described by cfg.
func NewFlexPublisher(cfg Config) (*FlexPublisher, error) {
	cli, err := NewPahoClient(cfg)
	if err != nil {
		return nil, err
	}
	return newFlexPublisher(cli, cfg.TopicPrefix), nil
}

func newFlexPublisher(cli publisher, prefix string) *FlexPublisher {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &FlexPublisher{cli: cli, prefix: prefix, now: time.Now}
}

// RecordFlexSummary publishes one message per chain summary.
func (p *FlexPublisher) RecordFlexSummary(res []coremetrics.FlexSummary) error {
	for _, r := range res {
		msg := summaryMessage{
			MessageID: uuid.NewString(),
			RunID:     r.RunID,
			Summary:   r.Summary,
			Timestamp: p.now().UnixMilli(),
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := fmt.Sprintf("%s/vehicle/%s/flex", p.prefix, r.Summary.VehicleID)
		if err := p.cli.Publish(topic, payload); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}
	return nil
}

// RecordRun publishes the run report.
func (p *FlexPublisher) RecordRun(ev coremetrics.RunEvent) error {
	payload, err := json.Marshal(runMessage{
		MessageID:            uuid.NewString(),
		RunID:                ev.RunID,
		Vehicles:             ev.Vehicles,
		Chains:               ev.Chains,
		Failed:               ev.Failed,
		Filtered:             ev.Filtered,
		DroppedDistance:      ev.DroppedDistance,
		DroppedDistanceRatio: ev.DroppedDistanceRatio,
		Iterations:           ev.Iterations,
		Converged:            ev.Converged,
		DurationMS:           ev.Duration.Milliseconds(),
		Timestamp:            p.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return p.cli.Publish(p.prefix+"/run", payload)
}

// Close disconnects from the broker.
func (p *FlexPublisher) Close() error {
	p.cli.Disconnect()
	return nil
}

func init() {
	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewFlexPublisher(c)
	})
}
