package structured

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/structured/config"
	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/events"
	"github.com/kbukum/structured/extract"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/observability"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/schema"
	"github.com/kbukum/structured/validation"
)

func TestNew_Validation(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{nil}}
	if _, err := New[user](nil, userModel()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil source: %v", err)
	}
	if _, err := New[user](src, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil model: %v", err)
	}
	if _, err := New[user](src, userModel(), WithMode[user]("xml")); err == nil {
		t.Error("expected error for unknown mode")
	}
	if _, err := New[user](src, userModel(), WithMaxAttempts[user](0)); err == nil {
		t.Error("expected error for zero attempts")
	}
}

func TestGet_FirstAttempt(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{
		jsonAttempt(`{"name":"Al","age":30}`, llm.Usage{InputTokens: 100, OutputTokens: 9}),
	}}
	x, err := New[user](src, userModel(), WithMode[user](schema.ModeJSON), quiet[user]())
	if err != nil {
		t.Fatal(err)
	}

	got, err := x.Get(context.Background(), userRequest())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != (user{Name: "Al", Age: 30}) {
		t.Errorf("got %+v", got)
	}
	if src.opens() != 1 {
		t.Errorf("opens = %d, want 1", src.opens())
	}
	if src.closes != 1 {
		t.Errorf("source should be closed once, got %d", src.closes)
	}
	req := src.requests[0]
	if req.Mode != "json" || !strings.Contains(req.SystemPrompt, "JSON Schema") {
		t.Errorf("request not prepared for json mode: %+v", req)
	}
}

func TestResponse_RetriesWithFeedback(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{
		jsonAttempt(`{"name":"Al"}`, llm.Usage{InputTokens: 100, OutputTokens: 5}),
		jsonAttempt(`{"name":"Al","age":30}`, llm.Usage{InputTokens: 120, OutputTokens: 7}),
	}}
	col := events.NewCollector()
	x, err := New[user](src, userModel(),
		WithMode[user](schema.ModeJSON),
		WithEvents[user](col),
		quiet[user](),
	)
	if err != nil {
		t.Fatal(err)
	}

	c, err := x.Response(context.Background(), userRequest())
	if err != nil {
		t.Fatalf("Response: %v", err)
	}
	if c.State != StateSucceeded || c.Attempts != 2 || len(c.Failures) != 1 {
		t.Errorf("completion = state %v attempts %d failures %d", c.State, c.Attempts, len(c.Failures))
	}
	if !errors.Is(c.Failures[0], errors.ErrCodeValidation) {
		t.Errorf("first failure = %v", c.Failures[0])
	}
	if c.Usage.InputTokens != 220 || c.Usage.OutputTokens != 12 {
		t.Errorf("usage = %+v, want summed across attempts", c.Usage)
	}
	if !c.Aggregate.Final || c.Aggregate.Usage.InputTokens != 120 {
		t.Errorf("aggregate should be the last attempt's: %+v", c.Aggregate.Usage)
	}

	retry := src.requests[1]
	if len(retry.Messages) != 3 {
		t.Fatalf("retry messages = %d, want 3", len(retry.Messages))
	}
	if retry.Messages[1].Role != llm.RoleAssistant || retry.Messages[1].Content != `{"name":"Al"}` {
		t.Errorf("assistant echo = %+v", retry.Messages[1])
	}
	if retry.Messages[2].Role != llm.RoleUser || !strings.HasPrefix(retry.Messages[2].Content, config.DefaultRetryPrompt) {
		t.Errorf("feedback = %+v", retry.Messages[2])
	}
	if len(src.requests[0].Messages) != 1 {
		t.Error("first request must not be modified")
	}

	if col.Count(events.NameAttemptStarted) != 2 || col.Count(events.NameAttemptFailed) != 1 {
		t.Errorf("events = %v", col.Names())
	}
	done := col.Named(events.NameResponseCompleted)
	if len(done) != 1 {
		t.Fatalf("expected one response_completed, got %d", len(done))
	}
	rc := done[0].(events.ResponseCompleted)
	if rc.Err != nil || rc.Attempts != 2 {
		t.Errorf("response_completed = %+v", rc)
	}
	failed := col.Named(events.NameAttemptFailed)[0].(events.AttemptFailed)
	if !failed.Retry || failed.Attempt != 1 {
		t.Errorf("attempt_failed = %+v", failed)
	}
}

func TestResponse_Exhausted(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{jsonAttempt(`{"name":"Al"}`, llm.Usage{})}}
	x, err := New[user](src, userModel(), WithMode[user](schema.ModeJSON), WithMaxAttempts[user](2), quiet[user]())
	if err != nil {
		t.Fatal(err)
	}

	c, err := x.Response(context.Background(), userRequest())
	if !errors.Is(err, errors.ErrCodeRetriesExhausted) {
		t.Fatalf("expected retries exhausted, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["attempts"] != 2 {
		t.Errorf("attempts detail = %v", appErr.Details["attempts"])
	}
	if fs, ok := appErr.Details["failures"].([]string); !ok || len(fs) != 2 {
		t.Errorf("failures detail = %v", appErr.Details["failures"])
	}
	if !errors.Is(appErr.Cause, errors.ErrCodeValidation) {
		t.Errorf("cause = %v", appErr.Cause)
	}
	if c.State != StateExhausted || c.Attempts != 2 {
		t.Errorf("completion = %+v", c)
	}
	if src.opens() != 2 {
		t.Errorf("opens = %d, want 2", src.opens())
	}
}

func TestResponse_NoRetryPolicy(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{jsonAttempt(`{"name":"Al"}`, llm.Usage{})}}
	x, _ := New[user](src, userModel(),
		WithMode[user](schema.ModeJSON),
		WithRetryPolicy[user](NoRetry),
		quiet[user](),
	)

	_, err := x.Get(context.Background(), userRequest())
	if !errors.Is(err, errors.ErrCodeRetriesExhausted) {
		t.Fatalf("expected retries exhausted, got %v", err)
	}
	if src.opens() != 1 {
		t.Errorf("opens = %d, want 1", src.opens())
	}
}

func TestResponse_NoObject(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{jsonAttempt(`I cannot help with that.`, llm.Usage{})}}
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), WithMaxAttempts[user](1), quiet[user]())

	c, err := x.Response(context.Background(), userRequest())
	if !errors.Is(err, errors.ErrCodeRetriesExhausted) {
		t.Fatalf("expected retries exhausted, got %v", err)
	}
	if c.Aggregate.HasObject {
		t.Error("no object expected")
	}
}

func TestResponse_TransportErrorIsFatal(t *testing.T) {
	boom := stderrors.New("connection reset")
	src := &script{
		attempts: [][]llm.PartialResponse{jsonAttempt(`{"name":"Al","age":30}`, llm.Usage{})},
		openErrs: []error{boom},
	}
	col := events.NewCollector()
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), WithEvents[user](col), quiet[user]())

	_, err := x.Get(context.Background(), userRequest())
	if !errors.Is(err, errors.ErrCodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !stderrors.Is(err, boom) {
		t.Error("cause should be preserved")
	}
	if src.opens() != 1 {
		t.Errorf("transport errors must not be retried, opens = %d", src.opens())
	}
	if col.Count(events.NameResponseCompleted) != 1 {
		t.Errorf("events = %v", col.Names())
	}
}

func TestResponse_MidStreamError(t *testing.T) {
	src := &script{
		attempts:  [][]llm.PartialResponse{{{ContentDelta: `{"name":`}}},
		streamErr: stderrors.New("stream broke"),
	}
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), quiet[user]())

	_, err := x.Get(context.Background(), userRequest())
	if !errors.Is(err, errors.ErrCodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if src.opens() != 1 || src.closes != 1 {
		t.Errorf("opens = %d closes = %d", src.opens(), src.closes)
	}
}

func TestResponse_Canceled(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{jsonAttempt(`{"name":"Al","age":30}`, llm.Usage{})}}
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), quiet[user]())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := x.Get(ctx, userRequest())
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestResponse_StructValidator(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{
		jsonAttempt(`{"name":"Al","age":-4}`, llm.Usage{}),
		jsonAttempt(`{"name":"Al","age":4}`, llm.Usage{}),
	}}
	x, _ := New[user](src, userModel(),
		WithMode[user](schema.ModeJSON),
		WithValidators[user](validation.Struct[user]()),
		quiet[user](),
	)

	c, err := x.Response(context.Background(), userRequest())
	if err != nil {
		t.Fatalf("Response: %v", err)
	}
	if c.Object.Age != 4 || c.Attempts != 2 {
		t.Errorf("completion = %+v", c)
	}
	feedback := src.requests[1].Messages[2].Content
	if !strings.Contains(feedback, "age") {
		t.Errorf("feedback should name the field: %q", feedback)
	}
}

func TestGet_ToolMode(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{
		toolAttempt("user_tool", `{"name":"Al","age":30}`),
	}}
	x, err := New[user](src, userModel(), WithToolName[user]("user_tool"), quiet[user]())
	if err != nil {
		t.Fatal(err)
	}

	got, err := x.Get(context.Background(), userRequest())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Al" {
		t.Errorf("got %+v", got)
	}
	req := src.requests[0]
	if req.Tool == nil || req.Tool.Name != "user_tool" || req.Mode != "tools" {
		t.Errorf("tool not prepared: %+v", req.Tool)
	}
	if x.Model().ToolName != schema.DefaultToolName {
		t.Error("the model must not be mutated by the override")
	}
}

func TestStream_Snapshots(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{
		jsonAttempt(`{"name":"Al"}`, llm.Usage{}),
		jsonAttempt(`{"name":"Al","age":30}`, llm.Usage{}),
	}}
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), quiet[user]())

	snaps, err := pipeline.Collect(context.Background(), x.Stream(context.Background(), userRequest()))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(snaps) < 2 {
		t.Fatalf("expected partial and final snapshots, got %d", len(snaps))
	}
	for _, s := range snaps[:len(snaps)-1] {
		if s.Final {
			t.Error("only the last snapshot may be final")
		}
		if s.Emission == extract.EmissionNone {
			t.Error("snapshots without emission should not be yielded")
		}
	}
	last := snaps[len(snaps)-1]
	if !last.Final || last.Object != (user{Name: "Al", Age: 30}) {
		t.Errorf("last snapshot = %+v", last)
	}
}

func TestStream_Exhausted(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{jsonAttempt(`{"name":"Al"}`, llm.Usage{})}}
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), WithMaxAttempts[user](2), quiet[user]())

	snaps, err := pipeline.Collect(context.Background(), x.Stream(context.Background(), userRequest()))
	if !errors.Is(err, errors.ErrCodeRetriesExhausted) {
		t.Fatalf("expected retries exhausted, got %v", err)
	}
	for _, s := range snaps {
		if s.Final {
			t.Error("failed attempts' final aggregates are not yielded")
		}
	}
}

func TestStream_EarlyClose(t *testing.T) {
	src := &script{attempts: [][]llm.PartialResponse{jsonAttempt(`{"name":"Al","age":30}`, llm.Usage{})}}
	col := events.NewCollector()
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), WithEvents[user](col), quiet[user]())

	it := x.Stream(context.Background(), userRequest())
	s, ok, err := it.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("Next: %v %v", ok, err)
	}
	if s.Final {
		t.Fatal("first snapshot should be partial")
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := it.Next(context.Background()); ok {
		t.Error("closed stream should be exhausted")
	}
	if src.closes != 1 {
		t.Errorf("source closes = %d, want 1", src.closes)
	}
	if col.Count(events.NameStreamReceived) != 0 || col.Count(events.NameResponseCompleted) != 0 {
		t.Errorf("an abandoned stream does not complete: %v", col.Names())
	}
}

func TestExtractor_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	src := &script{attempts: [][]llm.PartialResponse{
		jsonAttempt(`{"name":"Al"}`, llm.Usage{}),
		jsonAttempt(`{"name":"Al","age":30}`, llm.Usage{}),
	}}
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), WithMetrics[user](metrics), quiet[user]())
	if _, err := x.Get(context.Background(), userRequest()); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					counts[m.Name] += dp.Value
				}
			}
		}
	}
	if counts["extraction.attempts"] != 2 {
		t.Errorf("attempts = %d, want 2", counts["extraction.attempts"])
	}
	if counts["extraction.failures"] != 1 {
		t.Errorf("failures = %d, want 1", counts["extraction.failures"])
	}
	if counts["extraction.frames"] == 0 {
		t.Error("frames should be counted")
	}
}

func TestExtractor_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	}()

	src := &script{attempts: [][]llm.PartialResponse{
		jsonAttempt(`{"name":"Al"}`, llm.Usage{}),
		jsonAttempt(`{"name":"Al","age":30}`, llm.Usage{}),
	}}
	x, _ := New[user](src, userModel(), WithMode[user](schema.ModeJSON), quiet[user]())
	if _, err := x.Get(context.Background(), userRequest()); err != nil {
		t.Fatal(err)
	}

	spans := sr.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 2 attempt spans and 1 extraction span, got %d", len(spans))
	}
	root := spans[len(spans)-1]
	if root.Name() != observability.SpanExtraction {
		t.Fatalf("last span = %q, want %q", root.Name(), observability.SpanExtraction)
	}
	attrs := map[string]string{}
	for _, kv := range root.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[observability.AttrStatus] != StateSucceeded.String() || attrs[observability.AttrAttempt] != "2" {
		t.Errorf("extraction attributes = %v", attrs)
	}
	if attrs[observability.AttrProvider] != "script" {
		t.Errorf("provider = %q", attrs[observability.AttrProvider])
	}
	for _, s := range spans[:2] {
		if s.Name() != observability.SpanAttempt {
			t.Errorf("span %q, want %q", s.Name(), observability.SpanAttempt)
		}
		if s.Parent().SpanID() != root.SpanContext().SpanID() {
			t.Errorf("attempt span is not a child of the extraction span")
		}
	}
}

func TestFromConfig(t *testing.T) {
	opts, err := FromConfig[user](config.Config{Mode: "json", MaxRetries: 2, ToolName: "t"})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	src := &script{attempts: [][]llm.PartialResponse{jsonAttempt(`{"name":"Al"}`, llm.Usage{})}}
	x, err := New[user](src, userModel(), append(opts, quiet[user]())...)
	if err != nil {
		t.Fatal(err)
	}
	if x.Mode() != schema.ModeJSON || x.maxAttempts != 2 || x.toolName != "t" {
		t.Errorf("extractor = mode %s attempts %d tool %q", x.Mode(), x.maxAttempts, x.toolName)
	}
	if p, ok := x.policy.(DefaultPolicy); !ok || p.Prompt != config.DefaultRetryPrompt {
		t.Errorf("policy = %#v", x.policy)
	}

	if _, err := FromConfig[user](config.Config{Mode: "xml"}); err == nil {
		t.Error("expected error for invalid mode")
	}
}
