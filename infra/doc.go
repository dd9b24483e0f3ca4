// Package infra holds the adapters around the flexibility pipeline: trip
// readers, metrics and KPI sinks, the MQTT publisher, tracing, error
// monitoring and logging. They depend only on the interfaces and types
// defined under core and config.
package infra
