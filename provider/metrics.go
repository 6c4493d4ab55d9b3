package provider

import (
	"context"
	"time"

	"github.com/kbukum/structured/observability"
	"github.com/kbukum/structured/pipeline"
)

// WithStreamMetrics returns a StreamMiddleware that records stream opens,
// active streams and stream lifetime on metrics. A nil metrics records nothing.
func WithStreamMetrics[I, O any](metrics *observability.Metrics) StreamMiddleware[I, O] {
	return func(inner Stream[I, O]) Stream[I, O] {
		return &metricsStream[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsStream[I, O any] struct {
	inner   Stream[I, O]
	metrics *observability.Metrics
}

func (m *metricsStream[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsStream[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsStream[I, O]) Execute(ctx context.Context, input I) (pipeline.Iterator[O], error) {
	start := time.Now()
	it, err := m.inner.Execute(ctx, input)
	if err != nil {
		m.metrics.RecordStreamOpen(ctx, m.inner.Name(), "error")
		return nil, err
	}
	m.metrics.RecordStreamOpen(ctx, m.inner.Name(), "ok")

	return watch(it, func(int, error) {
		m.metrics.RecordStreamClose(context.WithoutCancel(ctx), m.inner.Name(), time.Since(start))
	}), nil
}
