package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "structured", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "invalid-level")
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("invalid level should fall back to info")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info records should be written")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	if l := NewFromEnv("env-svc"); l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "debug").
		WithComponent("extractor").
		WithFields(Fields(FieldAttempt, 2, FieldMode, "tools"))
	l.Info("attempt started", Fields(FieldFrameIndex, 7))

	m := decodeLine(t, &buf)
	if m[FieldComponent] != "extractor" {
		t.Errorf("component = %v", m[FieldComponent])
	}
	if m[FieldAttempt] != float64(2) || m[FieldMode] != "tools" || m[FieldFrameIndex] != float64(7) {
		t.Errorf("fields missing: %v", m)
	}
	if m["service"] != "structured" {
		t.Errorf("service = %v", m["service"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").WithError(errors.New("bad json")).Error("frame failed")
	m := decodeLine(t, &buf)
	if m["error"] != "bad json" {
		t.Errorf("error = %v", m["error"])
	}
}

func TestWithContext_Span(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info")
	if l.WithContext(context.Background()) != l {
		t.Error("no span should return the same logger")
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	l.WithContext(ctx).Info("with span")
	m := decodeLine(t, &buf)
	if m[FieldTraceID] != sc.TraceID().String() || m[FieldSpanID] != sc.SpanID().String() {
		t.Errorf("trace fields missing: %v", m)
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing")
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer func() { globalLogger = prev }()

	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected a default global logger")
	}
	var buf bytes.Buffer
	SetGlobalLogger(jsonLogger(&buf, "info"))
	WithComponent("events").Warn("dropped")
	if !strings.Contains(buf.String(), "dropped") {
		t.Error("package-level helpers should use the global logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "structured", &buf)
	l.Info("hello")
	if !strings.Contains(buf.String(), "[STR][INF]") {
		t.Errorf("unexpected console output %q", buf.String())
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if len(m) != 2 || m["a"] != 1 || m["b"] != "two" {
		t.Errorf("Fields = %v", m)
	}
}

func TestMergeHelpers(t *testing.T) {
	m := MergeWithError(nil, errors.New("x"))
	if m[FieldError] != "x" {
		t.Errorf("MergeWithError = %v", m)
	}
	m = MergeWithDuration(m, 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("MergeWithDuration = %v", m)
	}
}
