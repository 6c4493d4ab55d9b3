package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while a breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is a breaker state.
type State int

const (
	// StateClosed lets calls through and counts consecutive failures.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down elapses.
	StateOpen
	// StateHalfOpen lets a few probe calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// Name identifies the guarded provider in callbacks.
	Name string
	// MaxFailures opens the breaker after this many consecutive failures.
	MaxFailures int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// Probes is the number of calls allowed while half-open.
	Probes int
	// Counts decides whether an error counts as a failure. By default
	// every error except context cancellation does.
	Counts func(error) bool
	// OnStateChange runs on every transition, under the breaker's lock.
	OnStateChange func(name string, from, to State)
}

// DefaultBreakerConfig opens after 5 failures for 30s with one probe.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{Name: name, MaxFailures: 5, Cooldown: 30 * time.Second, Probes: 1}
}

// Breaker fails calls fast while the guarded stream source is unhealthy.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	probes   int
	passed   int
	openedAt time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 1
	}
	if cfg.Counts == nil {
		cfg.Counts = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Allow reserves a call, returning ErrCircuitOpen when the breaker rejects it.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.current() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probes >= b.cfg.Probes {
			return ErrCircuitOpen
		}
		b.probes++
	}
	return nil
}

// Record reports the outcome of a call reserved with Allow.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil && b.cfg.Counts(err) {
		b.failures++
		if b.current() == StateHalfOpen || b.failures >= b.cfg.MaxFailures {
			b.transition(StateOpen)
		}
		return
	}
	switch b.current() {
	case StateHalfOpen:
		b.passed++
		if b.passed >= b.cfg.Probes {
			b.transition(StateClosed)
		}
	case StateClosed:
		b.failures = 0
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current()
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failures = 0
}

func (b *Breaker) current() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		b.transition(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.probes, b.passed = 0, 0
	switch to {
	case StateOpen:
		b.openedAt = b.now()
	case StateClosed:
		b.failures = 0
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}

// Guard runs fn through b. A nil breaker runs fn directly.
func Guard[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	if err := b.Allow(); err != nil {
		var zero T
		return zero, err
	}
	v, err := fn()
	b.Record(err)
	return v, err
}
