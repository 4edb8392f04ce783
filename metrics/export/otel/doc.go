// Package otel publishes emailauth counters and latency histograms as
// OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per cumulative histogram bucket. The caller owns the
// MeterProvider and supplies the Meter.
package otel
