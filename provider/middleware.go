package provider

// StreamMiddleware transforms a Stream provider by wrapping it.
// The returned provider typically delegates to the original while
// adding cross-cutting behavior (logging, metrics, tracing, etc.).
type StreamMiddleware[I, O any] func(Stream[I, O]) Stream[I, O]

// Chain composes multiple middlewares into one. Middlewares are applied
// in order: the first middleware is outermost (executes first on the
// way in, last on the way out).
//
// Chain(a, b, c)(provider) is equivalent to a(b(c(provider))).
func Chain[I, O any](middlewares ...StreamMiddleware[I, O]) StreamMiddleware[I, O] {
	return func(inner Stream[I, O]) Stream[I, O] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}
