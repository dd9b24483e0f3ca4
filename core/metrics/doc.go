package metrics

// Package metrics defines interfaces and implementations for recording
// flexibility estimation results. Sinks like PromSink and InfluxSink record
// per-vehicle summaries, built chains and run summaries and can be combined
// with NewMultiSink. The factory helpers return a MultiSink automatically
// when multiple sinks are configured.
