// Package provider defines the stream provider abstraction the extractor
// pulls partial responses from, plus middleware for it.
//
// A Stream[I, O] opens one fresh pipeline.Iterator[O] per Execute call.
// Drivers adapt vendor SDK streams to Stream[llm.Request, llm.PartialResponse];
// NewStreamFunc adapts a plain function.
//
// # Middleware
//
// StreamMiddleware[I, O] wraps a Stream provider. Use Chain to compose:
//
//	wrapped := provider.Chain(
//	    provider.WithStreamLogging[llm.Request, llm.PartialResponse](log),
//	    provider.WithStreamMetrics[llm.Request, llm.PartialResponse](metrics),
//	    provider.WithStreamTracing[llm.Request, llm.PartialResponse](),
//	    provider.WithStreamRetry[llm.Request, llm.PartialResponse](resilience.DefaultRetryConfig()),
//	)(driver)
//
// Resilience applies to opening a stream only. Once items flow, failures
// surface from Next and are handled by the caller.
package provider
