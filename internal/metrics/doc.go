// Package metrics defines the Recorder hooks the pipeline reports through and
// a Prometheus-backed implementation.
package metrics
