// Package observability wires OpenTelemetry tracing and metrics for
// request dispatch and deferred resolution.
//
// InitTracer and InitMeter install OTLP/HTTP exporters as the global
// providers. Metrics instruments are created on any metric.Meter, so tests
// can pass a ManualReader-backed meter and inspect what was recorded.
package observability
