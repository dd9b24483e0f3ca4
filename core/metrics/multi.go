package metrics

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordFlexSummary forwards the summaries to all sinks, returning the first error encountered.
func (m *MultiSink) RecordFlexSummary(s []FlexSummary) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordFlexSummary(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordChains forwards chain events when supported by the sink.
func (m *MultiSink) RecordChains(evs []ChainEvent) error {
	for _, sink := range m.Sinks {
		if rec, ok := sink.(ChainRecorder); ok {
			if err := rec.RecordChains(evs); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRun forwards the run summary when supported by the sink.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, sink := range m.Sinks {
		if rec, ok := sink.(RunRecorder); ok {
			if err := rec.RecordRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the sinks implementing io.Closer-like Close methods.
func (m *MultiSink) Close() error {
	var first error
	for _, sink := range m.Sinks {
		if c, ok := sink.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
