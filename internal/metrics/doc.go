// Package metrics provides the observability hooks of the asset pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	c := copier.New(copier.Options{Recorder: metrics.NoopRecorder{}})
//
// MemoryRecorder keeps plain counters and is what tests use to assert how many
// copies a run performed. PrometheusRecorder registers counters and histograms on a
// registry; the CLI can dump that registry to a node-exporter textfile after a build.
package metrics
