package provider

import (
	"context"

	"github.com/kbukum/structured/pipeline"
)

// Provider is the base interface all providers must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Stream represents a provider that takes one input and returns multiple outputs.
// Every Execute opens a fresh source; the caller must Close the iterator.
type Stream[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (pipeline.Iterator[O], error)
}

// StreamFunc adapts a function to Stream.
type StreamFunc[I, O any] func(ctx context.Context, input I) (pipeline.Iterator[O], error)

// NewStreamFunc names fn as a Stream provider that is always available.
func NewStreamFunc[I, O any](name string, fn StreamFunc[I, O]) Stream[I, O] {
	return &funcStream[I, O]{name: name, fn: fn}
}

type funcStream[I, O any] struct {
	name string
	fn   StreamFunc[I, O]
}

func (f *funcStream[I, O]) Name() string                     { return f.name }
func (f *funcStream[I, O]) IsAvailable(context.Context) bool { return true }

func (f *funcStream[I, O]) Execute(ctx context.Context, input I) (pipeline.Iterator[O], error) {
	return f.fn(ctx, input)
}
