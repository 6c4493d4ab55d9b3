package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttemptContext holds observability state for one extraction attempt.
type AttemptContext struct {
	Mode        string
	Response    string
	Attempt     int
	MaxAttempts int
	StartTime   time.Time
	Metrics     *Metrics
}

// NewAttemptContext creates a new attempt context.
// If metrics is nil, metric recording is silently skipped.
func NewAttemptContext(mode, response string, attempt, maxAttempts int, metrics *Metrics) *AttemptContext {
	return &AttemptContext{
		Mode:        mode,
		Response:    response,
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		StartTime:   time.Now(),
		Metrics:     metrics,
	}
}

type attemptContextKey struct{}

// WithAttemptContext stores an AttemptContext in the context.
func WithAttemptContext(ctx context.Context, ac *AttemptContext) context.Context {
	return context.WithValue(ctx, attemptContextKey{}, ac)
}

// AttemptContextFromContext retrieves the AttemptContext from context, or nil.
func AttemptContextFromContext(ctx context.Context) *AttemptContext {
	if ac, ok := ctx.Value(attemptContextKey{}).(*AttemptContext); ok {
		return ac
	}
	return nil
}

// Start opens the attempt span and stores the attempt in the returned context.
func (ac *AttemptContext) Start(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanAttempt)
	span.SetAttributes(
		attribute.String(AttrMode, ac.Mode),
		attribute.String(AttrResponse, ac.Response),
		attribute.Int(AttrAttempt, ac.Attempt),
		attribute.Int(AttrMaxAttempts, ac.MaxAttempts),
	)
	return WithAttemptContext(ctx, ac), span
}

// Frame counts one folded frame.
func (ac *AttemptContext) Frame(ctx context.Context, emission string) {
	ac.Metrics.RecordFrame(ctx, emission)
}

// End closes the span and records the attempt outcome.
// code is the error code of a failed attempt and is ignored when err is nil.
func (ac *AttemptContext) End(ctx context.Context, span trace.Span, status, code string, err error) {
	duration := time.Since(ac.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorCode, code))
		ac.Metrics.RecordFailure(ctx, code)
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	ac.Metrics.RecordAttempt(ctx, ac.Mode, status, duration)
}

// Duration returns the elapsed time since the attempt started.
func (ac *AttemptContext) Duration() time.Duration {
	return time.Since(ac.StartTime)
}
