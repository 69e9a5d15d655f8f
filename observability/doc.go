// Package observability wires OpenTelemetry tracing and metrics for the
// worker: OTLP/HTTP exporters, a span per pipeline phase, and counters and
// histograms for jobs and HTTP requests.
//
//	shutdown, err := observability.Setup(ctx, cfg, log)
//	defer shutdown(ctx)
//
//	ctx, phase := observability.StartPhase(ctx, metrics, "stage")
//	defer phase.End(err)
package observability
