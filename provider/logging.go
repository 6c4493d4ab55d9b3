package provider

import (
	"context"
	"time"

	"github.com/kbukum/structured/logger"
	"github.com/kbukum/structured/observability"
	"github.com/kbukum/structured/pipeline"
)

// WithStreamLogging returns a StreamMiddleware that logs each stream open
// and close. Logs: provider name, attempt when known, duration and item count.
// A nil logger uses the global logger.
func WithStreamLogging[I, O any](log *logger.Logger) StreamMiddleware[I, O] {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("provider")
	return func(inner Stream[I, O]) Stream[I, O] {
		return &loggingStream[I, O]{inner: inner, log: log}
	}
}

type loggingStream[I, O any] struct {
	inner Stream[I, O]
	log   *logger.Logger
}

func (l *loggingStream[I, O]) Name() string                         { return l.inner.Name() }
func (l *loggingStream[I, O]) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }

func (l *loggingStream[I, O]) Execute(ctx context.Context, input I) (pipeline.Iterator[O], error) {
	start := time.Now()
	it, err := l.inner.Execute(ctx, input)

	fields := logger.Fields(logger.FieldProvider, l.inner.Name())
	if ac := observability.AttemptContextFromContext(ctx); ac != nil {
		fields[logger.FieldAttempt] = ac.Attempt
	}

	if err != nil {
		fields[logger.FieldDuration] = time.Since(start).Milliseconds()
		fields[logger.FieldError] = err.Error()
		l.log.Error("stream open failed", fields)
		return nil, err
	}
	l.log.Debug("stream opened", fields)

	return watch(it, func(items int, streamErr error) {
		closed := logger.MergeWithDuration(logger.Fields(
			logger.FieldProvider, l.inner.Name(),
			"items", items,
		), time.Since(start))
		if attempt, ok := fields[logger.FieldAttempt]; ok {
			closed[logger.FieldAttempt] = attempt
		}
		if streamErr != nil {
			l.log.Warn("stream closed with error", logger.MergeWithError(closed, streamErr))
			return
		}
		l.log.Debug("stream closed", closed)
	}), nil
}
