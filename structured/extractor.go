package structured

import (
	"context"

	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/events"
	"github.com/kbukum/structured/extract"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/logger"
	"github.com/kbukum/structured/observability"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/provider"
	"github.com/kbukum/structured/schema"
)

// Source is the stream provider an Extractor pulls partial responses from.
type Source = provider.Stream[llm.Request, llm.PartialResponse]

// Extractor turns a streamed completion into a validated T, retrying with
// corrective feedback when an attempt ends without one. An Extractor is
// immutable after New and safe for concurrent use; every call builds its
// own pipeline.
type Extractor[T any] struct {
	source      Source
	model       *schema.ResponseModel
	mode        schema.Mode
	toolName    string
	maxAttempts int
	policy      RetryPolicy
	caps        extract.Capabilities[T]
	validators  []extract.Validator[T]
	events      events.Dispatcher
	accumulate  bool
	metrics     *observability.Metrics
	log         *logger.Logger
}

// New creates an Extractor reading from source and producing model.
func New[T any](source Source, model *schema.ResponseModel, opts ...Option[T]) (*Extractor[T], error) {
	if source == nil {
		return nil, errors.InvalidInput("source", "stream provider is required")
	}
	if model == nil {
		return nil, errors.InvalidInput("model", "response model is required")
	}
	x := &Extractor[T]{
		source:      source,
		model:       model,
		mode:        schema.ModeTools,
		maxAttempts: DefaultMaxAttempts,
		policy:      NewDefaultPolicy(),
	}
	for _, opt := range opts {
		opt(x)
	}
	if !x.mode.Valid() {
		return nil, errors.InvalidInput("mode", "unknown mode "+x.mode.String())
	}
	if x.maxAttempts < 1 {
		return nil, errors.InvalidInput("max_attempts", "must be at least 1")
	}
	if x.events == nil {
		x.events = events.Discard
	}
	if x.log == nil {
		x.log = logger.GetGlobalLogger()
	}
	x.log = x.log.WithComponent("extractor")
	x.caps = x.caps.WithDefaults(model)
	if x.toolName == "" && x.mode.IsToolCall() {
		x.toolName = model.ToolName
	}
	return x, nil
}

// Model returns the response model.
func (x *Extractor[T]) Model() *schema.ResponseModel { return x.model }

// Mode returns the output mode.
func (x *Extractor[T]) Mode() schema.Mode { return x.mode }

// Completion is the outcome of an extraction.
type Completion[T any] struct {
	// Object is the validated result. Zero unless State is StateSucceeded.
	Object T
	// Aggregate is the final aggregate of the last attempt that completed.
	Aggregate extract.Aggregate[T]
	// Attempts is the number of attempts started.
	Attempts int
	// Usage sums the usage of every attempt.
	Usage llm.Usage
	// Failures holds each failed attempt's error, in order.
	Failures []error
	State    State
}

// Get runs the extraction and returns the validated object.
func (x *Extractor[T]) Get(ctx context.Context, req llm.Request) (T, error) {
	c, err := x.Response(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.Object, nil
}

// Response runs the extraction to the end and returns its full outcome.
// On failure the returned Completion describes the attempts made.
func (x *Extractor[T]) Response(ctx context.Context, req llm.Request) (*Completion[T], error) {
	r := x.newRun(ctx, req)
	defer r.Close()
	for {
		_, ok, err := r.Next(ctx)
		if err != nil {
			return r.completion(), err
		}
		if !ok {
			return r.completion(), nil
		}
	}
}

// Stream runs the extraction lazily. It yields an aggregate snapshot for
// every frame that emitted an object or an error, across attempts, and
// ends with the final aggregate of the succeeding attempt. Failed
// attempts' final aggregates are not yielded; when the extraction gives
// up, Next returns the terminal error. Closing the iterator early stops
// the current stream without completing it.
func (x *Extractor[T]) Stream(ctx context.Context, req llm.Request) pipeline.Iterator[extract.Aggregate[T]] {
	return x.newRun(ctx, req)
}

func (x *Extractor[T]) prepare(req llm.Request) llm.Request {
	out := x.model.Prepare(req, x.mode)
	if out.Tool != nil && x.toolName != "" && out.Tool.Name != x.toolName {
		tool := *out.Tool
		tool.Name = x.toolName
		out.Tool = &tool
	}
	return out
}

func (x *Extractor[T]) chain() extract.Options[T] {
	return extract.Options[T]{
		Model:              x.model,
		Mode:               x.mode,
		ToolName:           x.toolName,
		Capabilities:       x.caps,
		Events:             x.events,
		AccumulatePartials: x.accumulate,
	}
}
