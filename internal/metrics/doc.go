// Package metrics defines the observability hooks for sync runs.
//
// Components receive a Recorder through dependency injection and never
// check whether metrics are enabled: NoopRecorder implements the full
// interface with empty methods, so un-instrumented runs pay nothing.
// The daemon swaps in the Prometheus implementation when it exposes a
// metrics endpoint:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	runner := pipeline.New(reg, sources, pipeline.WithRecorder(recorder))
//
// Tests inject a capturing recorder to assert on emitted observations.
package metrics
