// Package metrics defines the observability contract of the slot engine.
// Sinks like PromSink and InfluxSink (see infra/metrics) record searches and
// commits and can be combined with NewMultiSink. Optional recorder
// interfaces let a sink opt into extra events.
package metrics
