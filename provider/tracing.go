package provider

import (
	"context"

	"github.com/kbukum/structured/observability"
	"github.com/kbukum/structured/pipeline"
)

// WithStreamTracing returns a StreamMiddleware that creates an OpenTelemetry
// span around each stream open. The span covers only Execute; items pulled
// later are attributed to the caller's span.
func WithStreamTracing[I, O any]() StreamMiddleware[I, O] {
	return func(inner Stream[I, O]) Stream[I, O] {
		return &tracingStream[I, O]{inner: inner}
	}
}

type tracingStream[I, O any] struct {
	inner Stream[I, O]
}

func (t *tracingStream[I, O]) Name() string                         { return t.inner.Name() }
func (t *tracingStream[I, O]) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

func (t *tracingStream[I, O]) Execute(ctx context.Context, input I) (pipeline.Iterator[O], error) {
	spanCtx, span := observability.StartSpan(ctx, observability.SpanStreamOpen)
	defer span.End()

	observability.SetSpanAttribute(spanCtx, observability.AttrProvider, t.inner.Name())
	if ac := observability.AttemptContextFromContext(ctx); ac != nil {
		observability.SetSpanAttribute(spanCtx, observability.AttrAttempt, ac.Attempt)
	}

	it, err := t.inner.Execute(ctx, input)
	if err != nil {
		observability.SetSpanError(spanCtx, err)
		observability.SetSpanAttribute(spanCtx, observability.AttrStatus, "error")
		return nil, err
	}
	observability.SetSpanAttribute(spanCtx, observability.AttrStatus, "ok")
	return it, nil
}
