package structured

import (
	"github.com/kbukum/structured/config"
	"github.com/kbukum/structured/events"
	"github.com/kbukum/structured/extract"
	"github.com/kbukum/structured/logger"
	"github.com/kbukum/structured/observability"
	"github.com/kbukum/structured/resilience"
	"github.com/kbukum/structured/schema"
)

// DefaultMaxAttempts is used when no attempt limit is set.
const DefaultMaxAttempts = 3

// Option configures an Extractor.
type Option[T any] func(*Extractor[T])

// WithMode selects the output mode. Defaults to tools.
func WithMode[T any](mode schema.Mode) Option[T] {
	return func(x *Extractor[T]) { x.mode = mode }
}

// WithMaxAttempts limits the number of attempts, the first included.
func WithMaxAttempts[T any](n int) Option[T] {
	return func(x *Extractor[T]) { x.maxAttempts = n }
}

// WithRetryPolicy replaces DefaultPolicy.
func WithRetryPolicy[T any](p RetryPolicy) Option[T] {
	return func(x *Extractor[T]) { x.policy = p }
}

// WithToolName overrides the model's tool name in tool mode.
func WithToolName[T any](name string) Option[T] {
	return func(x *Extractor[T]) { x.toolName = name }
}

// WithCapabilities overrides the pipeline steps. Unset steps keep their defaults.
func WithCapabilities[T any](caps extract.Capabilities[T]) Option[T] {
	return func(x *Extractor[T]) { x.caps = caps }
}

// WithValidators adds full validators run on the terminal object after the
// model's schema check.
func WithValidators[T any](vs ...extract.Validator[T]) Option[T] {
	return func(x *Extractor[T]) { x.validators = append(x.validators, vs...) }
}

// WithEvents adds an event dispatcher. Repeated calls combine dispatchers.
func WithEvents[T any](d events.Dispatcher) Option[T] {
	return func(x *Extractor[T]) { x.events = events.Combine(x.events, d) }
}

// WithAccumulatePartials keeps every frame on the aggregate.
func WithAccumulatePartials[T any](on bool) Option[T] {
	return func(x *Extractor[T]) { x.accumulate = on }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger[T any](log *logger.Logger) Option[T] {
	return func(x *Extractor[T]) { x.log = log }
}

// WithMetrics records attempt and frame metrics.
func WithMetrics[T any](m *observability.Metrics) Option[T] {
	return func(x *Extractor[T]) { x.metrics = m }
}

// FromConfig converts cfg to options. cfg gets defaults applied and is
// validated first.
func FromConfig[T any](cfg config.Config) ([]Option[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := schema.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	policy := DefaultPolicy{
		Prompt: cfg.RetryPrompt,
		Backoff: resilience.Backoff{
			Initial: cfg.Backoff.Initial,
			Max:     cfg.Backoff.Max,
			Factor:  cfg.Backoff.Factor,
		},
	}
	if cfg.Backoff.Jitter {
		policy.Backoff.Jitter = 0.2
	}

	opts := []Option[T]{
		WithMode[T](mode),
		WithMaxAttempts[T](cfg.MaxRetries),
		WithRetryPolicy[T](policy),
		WithAccumulatePartials[T](cfg.AccumulatePartials),
		WithLogger[T](logger.New(&cfg.Logging, "structured")),
	}
	if cfg.ToolName != "" {
		opts = append(opts, WithToolName[T](cfg.ToolName))
	}
	return opts, nil
}
