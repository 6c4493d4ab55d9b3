package provider

import (
	"github.com/kbukum/structured/resilience"
)

// ResilienceConfig bundles optional resilience policies for a stream provider.
// Nil fields are skipped; zero config means pure passthrough.
type ResilienceConfig struct {
	// CircuitBreaker stops opening streams after repeated failures.
	CircuitBreaker *resilience.BreakerConfig
	// Retry re-opens a stream whose open call failed.
	Retry *resilience.RetryConfig
	// RateLimiter paces stream opens using a token bucket.
	RateLimiter *resilience.LimiterConfig
}

// IsEmpty returns true if no resilience policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.RateLimiter == nil
}

// ResilienceState holds initialized resilience primitives built from config.
type ResilienceState struct {
	breaker *resilience.Breaker
	limiter *resilience.Limiter
	// Retry config is stored as-is since resilience.Retry is a function, not a struct.
	retryCfg *resilience.RetryConfig
}

// BuildResilience creates initialized resilience primitives from config.
func BuildResilience(cfg ResilienceConfig) *ResilienceState {
	if cfg.IsEmpty() {
		return nil
	}
	s := &ResilienceState{
		retryCfg: cfg.Retry,
	}
	if cfg.CircuitBreaker != nil {
		s.breaker = resilience.NewBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		s.limiter = resilience.NewLimiter(*cfg.RateLimiter)
	}
	return s
}

// Breaker returns the circuit breaker, or nil when none is configured.
func (s *ResilienceState) Breaker() *resilience.Breaker {
	if s == nil {
		return nil
	}
	return s.breaker
}
