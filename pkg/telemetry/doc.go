// Package telemetry provides reactive.Observer implementations that export
// runtime activity: Prometheus metrics, OpenTelemetry spans and slog
// records. Multi combines several observers.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	rt := reactive.NewRuntime(reactive.WithObserver(telemetry.Multi(
//	    telemetry.NewMetrics(telemetry.WithRegistry(reg)),
//	    telemetry.NewTracer(),
//	)))
//
// Observers run with the runtime's propagation lock held, so none of them
// block or call back into the runtime.
package telemetry
