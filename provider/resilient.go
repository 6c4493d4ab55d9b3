package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/resilience"
)

// WithStreamResilience returns a StreamMiddleware applying cfg to the
// Execute call that opens the stream. Execution chain:
// RateLimiter → CircuitBreaker → Retry → Execute.
// Individual Next calls on the returned iterator are not wrapped: a stream
// that fails midway is the extractor's concern, not the provider's.
func WithStreamResilience[I, O any](cfg ResilienceConfig) StreamMiddleware[I, O] {
	return func(inner Stream[I, O]) Stream[I, O] {
		if cfg.IsEmpty() {
			return inner
		}
		return &resilientStream[I, O]{inner: inner, state: BuildResilience(cfg)}
	}
}

// WithStreamRetry retries failed stream opens with cfg.
func WithStreamRetry[I, O any](cfg resilience.RetryConfig) StreamMiddleware[I, O] {
	return WithStreamResilience[I, O](ResilienceConfig{Retry: &cfg})
}

type resilientStream[I, O any] struct {
	inner Stream[I, O]
	state *ResilienceState
}

func (r *resilientStream[I, O]) Name() string { return r.inner.Name() }

// IsAvailable reports false while the breaker is open.
func (r *resilientStream[I, O]) IsAvailable(ctx context.Context) bool {
	if b := r.state.Breaker(); b != nil && b.State() == resilience.StateOpen {
		return false
	}
	return r.inner.IsAvailable(ctx)
}

func (r *resilientStream[I, O]) Execute(ctx context.Context, input I) (pipeline.Iterator[O], error) {
	it, err := ExecuteWithResilience(ctx, r.state, func() (pipeline.Iterator[O], error) {
		return r.inner.Execute(ctx, input)
	})
	if err != nil {
		return nil, wrapResilienceError(r.inner.Name(), err)
	}
	return it, nil
}

// ExecuteWithResilience runs fn through the resilience chain:
// Limiter.Wait → Breaker → Retry → fn.
// A nil state runs fn directly.
func ExecuteWithResilience[T any](ctx context.Context, s *ResilienceState, fn func() (T, error)) (T, error) {
	if s == nil {
		return fn()
	}

	// Layer 1: Rate limiter (wait for token)
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
	}

	// Build the innermost call: retry wrapping fn, or bare fn
	call := fn
	if s.retryCfg != nil {
		retryCfg := *s.retryCfg
		call = func() (T, error) {
			return resilience.Retry(ctx, retryCfg, fn)
		}
	}

	// Layer 2: Circuit breaker wrapping call
	return resilience.Guard(s.breaker, call)
}

// wrapResilienceError converts resilience sentinels and context errors to
// AppErrors. Errors the inner provider already typed pass through.
func wrapResilienceError(name string, err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		appErr := apperrors.Transport(name, err).WithDetail("reason", "circuit open")
		appErr.Retryable = false
		return appErr
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Canceled(err)
	default:
		return apperrors.Transport(name, err)
	}
}
