// Package observability wires OpenTelemetry tracing and metrics export
// for the service. Providers are installed globally, so instrumented
// code can use the otel API directly and stays no-op when telemetry is
// disabled.
package observability
