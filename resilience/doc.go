// Package resilience provides the fault-tolerance primitives used around
// response streams.
//
//   - Backoff and Retry: exponential backoff with jitter, shared by the
//     stream-open retry and the pause between extraction attempts.
//   - Breaker: fails stream opens fast after repeated transport failures.
//   - Limiter: token bucket that paces stream opens.
//
// Only the call that opens a stream is guarded. A stream that breaks
// mid-way is reported to the caller, never replayed.
//
//	b := resilience.NewBreaker(resilience.DefaultBreakerConfig("openai"))
//	l := resilience.NewLimiter(resilience.LimiterConfig{Rate: 5, Burst: 10})
//	it, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (Iterator, error) {
//	    if err := l.Wait(ctx); err != nil {
//	        return nil, err
//	    }
//	    return resilience.Guard(b, func() (Iterator, error) { return open(ctx, req) })
//	})
package resilience
