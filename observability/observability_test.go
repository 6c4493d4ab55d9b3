package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/structured/config"
	"github.com/kbukum/structured/version"
)

func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func newMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// sum totals an int64 sum instrument, restricted to points carrying attr when set.
func sum(rm metricdata.ResourceMetrics, name string, attr *attribute.KeyValue) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			data, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range data.DataPoints {
				if attr != nil {
					v, found := dp.Attributes.Value(attr.Key)
					if !found || v.Emit() != attr.Value.Emit() {
						continue
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

func histogramCount(rm metricdata.ResourceMetrics, name string) uint64 {
	var total uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if data, ok := m.Data.(metricdata.Histogram[float64]); ok {
				for _, dp := range data.DataPoints {
					total += dp.Count
				}
			}
		}
	}
	return total
}

func kv(key, value string) *attribute.KeyValue {
	a := attribute.String(key, value)
	return &a
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
	if cfg.ServiceVersion != version.Short() {
		t.Errorf("expected ServiceVersion %q, got %q", version.Short(), cfg.ServiceVersion)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.RecordAttempt(context.Background(), "tools", "succeeded", time.Millisecond)
	m.RecordFrame(context.Background(), "object_ready")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordAttempt(ctx, "tools", "failed", time.Second)
	m.RecordFrame(ctx, "none")
	m.RecordFailure(ctx, "VALIDATION_ERROR")
	m.RecordStreamOpen(ctx, "openai", "ok")
	m.RecordStreamClose(ctx, "openai", time.Second)
}

func TestMetrics_Extraction(t *testing.T) {
	m, reader := newMetrics(t)
	ctx := context.Background()

	m.RecordFrame(ctx, "none")
	m.RecordFrame(ctx, "object_ready")
	m.RecordFrame(ctx, "object_ready")
	m.RecordFailure(ctx, "JSON_PARSE_ERROR")
	m.RecordAttempt(ctx, "tools", "retrying", 10*time.Millisecond)
	m.RecordAttempt(ctx, "tools", "succeeded", 20*time.Millisecond)

	rm := collect(t, reader)
	if got := sum(rm, "extraction.frames", nil); got != 3 {
		t.Errorf("frames = %d, want 3", got)
	}
	if got := sum(rm, "extraction.emissions", kv("type", "object_ready")); got != 2 {
		t.Errorf("object_ready emissions = %d, want 2", got)
	}
	if got := sum(rm, "extraction.failures", kv("code", "JSON_PARSE_ERROR")); got != 1 {
		t.Errorf("failures = %d, want 1", got)
	}
	if got := sum(rm, "extraction.attempts", kv("status", "succeeded")); got != 1 {
		t.Errorf("succeeded attempts = %d, want 1", got)
	}
	if got := histogramCount(rm, "extraction.attempt.duration"); got != 2 {
		t.Errorf("duration samples = %d, want 2", got)
	}
}

func TestMetrics_StreamLifecycle(t *testing.T) {
	m, reader := newMetrics(t)
	ctx := context.Background()

	m.RecordStreamOpen(ctx, "openai", "ok")
	m.RecordStreamOpen(ctx, "openai", "error")
	rm := collect(t, reader)
	if got := sum(rm, "stream.opens", nil); got != 2 {
		t.Errorf("opens = %d, want 2", got)
	}
	if got := sum(rm, "stream.active", nil); got != 1 {
		t.Errorf("active = %d, want 1", got)
	}

	m.RecordStreamClose(ctx, "openai", time.Second)
	rm = collect(t, reader)
	if got := sum(rm, "stream.active", nil); got != 0 {
		t.Errorf("active after close = %d, want 0", got)
	}
	if got := histogramCount(rm, "stream.duration"); got != 1 {
		t.Errorf("stream duration samples = %d, want 1", got)
	}
}

func TestAttemptContext_FromContext(t *testing.T) {
	ac := NewAttemptContext("tools", "User", 2, 3, nil)
	ctx := WithAttemptContext(context.Background(), ac)

	if got := AttemptContextFromContext(ctx); got != ac {
		t.Error("expected stored attempt context")
	}
	if AttemptContextFromContext(context.Background()) != nil {
		t.Error("expected nil when not set")
	}
}

func TestAttemptContext_SpanAndMetrics(t *testing.T) {
	sr := newRecorder(t)
	m, reader := newMetrics(t)

	ac := NewAttemptContext("json", "User", 1, 3, m)
	ctx, span := ac.Start(context.Background())
	if AttemptContextFromContext(ctx) != ac {
		t.Fatal("Start should store the attempt context")
	}
	ac.Frame(ctx, "object_ready")
	ac.End(ctx, span, "retrying", "VALIDATION_ERROR", errors.New("bad"))

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != SpanAttempt {
		t.Errorf("span name = %q", s.Name())
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, a := range s.Attributes() {
		attrs[a.Key] = a.Value
	}
	if attrs[AttrMode].AsString() != "json" {
		t.Errorf("mode attr = %v", attrs[AttrMode])
	}
	if attrs[AttrAttempt].AsInt64() != 1 {
		t.Errorf("attempt attr = %v", attrs[AttrAttempt])
	}
	if attrs[AttrStatus].AsString() != "retrying" {
		t.Errorf("status attr = %v", attrs[AttrStatus])
	}
	if attrs[AttrErrorCode].AsString() != "VALIDATION_ERROR" {
		t.Errorf("error code attr = %v", attrs[AttrErrorCode])
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}

	rm := collect(t, reader)
	if got := sum(rm, "extraction.attempts", kv("status", "retrying")); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
	if got := sum(rm, "extraction.failures", nil); got != 1 {
		t.Errorf("failures = %d, want 1", got)
	}
	if got := sum(rm, "extraction.frames", nil); got != 1 {
		t.Errorf("frames = %d, want 1", got)
	}
}

func TestStartSpan(t *testing.T) {
	sr := newRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanExtraction)
	SetSpanAttribute(ctx, AttrProvider, "openai")
	SetSpanAttribute(ctx, AttrAttempt, 2)
	SetSpanAttribute(ctx, AttrDurationMs, int64(5))
	SetSpanAttribute(ctx, "ratio", 0.5)
	SetSpanAttribute(ctx, "final", true)
	SetSpanAttribute(ctx, "keys", []string{"a", "b"})
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, errors.New("boom"))
	if SpanFromContext(ctx) != span {
		t.Error("SpanFromContext should return the started span")
	}
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if got := len(ended[0].Attributes()); got != 6 {
		t.Errorf("expected 6 attributes, got %d", got)
	}
	if len(ended[0].Events()) != 1 {
		t.Error("expected error event")
	}
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "key", "value")
	SetSpanError(context.Background(), errors.New("x"))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
	if got := sampler(0.5).Description(); got == "AlwaysOnSampler" || got == "AlwaysOffSampler" {
		t.Errorf("ratio sampler = %q", got)
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("svc", "1.2.3", "test")
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	v, ok := res.Set().Value("service.name")
	if !ok || v.AsString() != "svc" {
		t.Errorf("service.name = %v", v)
	}
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if p.Tracer != nil || p.Meter != nil {
		t.Error("disabled telemetry should not install providers")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestInitTracer(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")
	cfg.Environment = "test"

	tp, err := InitTracer(context.Background(), cfg)
	if err != nil {
		t.Skipf("InitTracer failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestInitMeter(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")
	cfg.Interval = 0

	mp, err := InitMeter(context.Background(), cfg)
	if err != nil {
		t.Skipf("InitMeter failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(ctx)
}
