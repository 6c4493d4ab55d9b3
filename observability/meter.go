package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/structured/logger"
	"github.com/kbukum/structured/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it globally.
// The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name, metric.WithInstrumentationVersion(version.Short()))
}

// Metrics holds the instruments recorded by extractors and stream providers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts        metric.Int64Counter
	attemptDuration metric.Float64Histogram
	frames          metric.Int64Counter
	emissions       metric.Int64Counter
	failures        metric.Int64Counter
	streamOpens     metric.Int64Counter
	streamDuration  metric.Float64Histogram
	streamsActive   metric.Int64UpDownCounter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	attempts, err := meter.Int64Counter("extraction.attempts",
		metric.WithDescription("Extraction attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating extraction.attempts counter: %w", err)
	}

	attemptDuration, err := meter.Float64Histogram("extraction.attempt.duration",
		metric.WithDescription("Duration of extraction attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating extraction.attempt.duration histogram: %w", err)
	}

	frames, err := meter.Int64Counter("extraction.frames",
		metric.WithDescription("Stream records folded into frames"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating extraction.frames counter: %w", err)
	}

	emissions, err := meter.Int64Counter("extraction.emissions",
		metric.WithDescription("Frame emissions by type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating extraction.emissions counter: %w", err)
	}

	failures, err := meter.Int64Counter("extraction.failures",
		metric.WithDescription("Failed extraction attempts by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating extraction.failures counter: %w", err)
	}

	streamOpens, err := meter.Int64Counter("stream.opens",
		metric.WithDescription("Provider stream opens by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.opens counter: %w", err)
	}

	streamDuration, err := meter.Float64Histogram("stream.duration",
		metric.WithDescription("Lifetime of provider streams in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.duration histogram: %w", err)
	}

	streamsActive, err := meter.Int64UpDownCounter("stream.active",
		metric.WithDescription("Number of currently open provider streams"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.active gauge: %w", err)
	}

	return &Metrics{
		attempts:        attempts,
		attemptDuration: attemptDuration,
		frames:          frames,
		emissions:       emissions,
		failures:        failures,
		streamOpens:     streamOpens,
		streamDuration:  streamDuration,
		streamsActive:   streamsActive,
	}, nil
}

// RecordAttempt records a finished attempt with its status and duration.
func (m *Metrics) RecordAttempt(ctx context.Context, mode, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status),
	))
	m.attemptDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

// RecordFrame counts one frame and its emission type.
func (m *Metrics) RecordFrame(ctx context.Context, emission string) {
	if m == nil {
		return
	}
	m.frames.Add(ctx, 1)
	m.emissions.Add(ctx, 1, metric.WithAttributes(attribute.String("type", emission)))
}

// RecordFailure counts a failed attempt by error code.
func (m *Metrics) RecordFailure(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// RecordStreamOpen records the outcome of opening a provider stream.
// A successful open also marks the stream active until RecordStreamClose.
func (m *Metrics) RecordStreamOpen(ctx context.Context, provider, status string) {
	if m == nil {
		return
	}
	m.streamOpens.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
	if status == "ok" {
		m.streamsActive.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
	}
}

// RecordStreamClose releases an active stream and records its lifetime.
func (m *Metrics) RecordStreamClose(ctx context.Context, provider string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	m.streamsActive.Add(ctx, -1, attrs)
	m.streamDuration.Record(ctx, duration.Seconds(), attrs)
}
