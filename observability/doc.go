// Package observability wires OpenTelemetry tracing and metrics into
// extraction attempts and provider streams.
//
// Setup from config:
//
//	providers, err := observability.Setup(ctx, cfg.Telemetry)
//	defer providers.Shutdown(ctx)
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("structured"))
//	metrics.RecordAttempt(ctx, "tools", "succeeded", duration)
//
// Attempts:
//
//	ac := observability.NewAttemptContext("tools", "User", 1, 3, metrics)
//	ctx, span := ac.Start(ctx)
//	defer ac.End(ctx, span, "succeeded", "", nil)
package observability
