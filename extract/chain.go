package extract

import (
	"github.com/kbukum/structured/events"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/reduce"
	"github.com/kbukum/structured/schema"
)

// Options configures a pipeline built by New.
type Options[T any] struct {
	// Model describes the expected object. Required for schema checks and
	// scalar/sequence unwrapping.
	Model *schema.ResponseModel
	// Mode selects which part of each record carries the object.
	Mode schema.Mode
	// ToolName is the tool whose calls produce events. Defaults to the
	// model's tool name in tool mode; unset in content modes.
	ToolName string
	// Capabilities overrides the pipeline's steps.
	Capabilities Capabilities[T]
	// Events receives pipeline events. Nil discards them.
	Events events.Dispatcher
	// AccumulatePartials keeps every frame on the aggregate.
	AccumulatePartials bool
}

// New builds the full chain: ExtractDelta, DeserializeValidateDedupe,
// EventTap and AggregateReducer.
func New[T any](opts Options[T]) *reduce.Transformation[Aggregate[T], llm.PartialResponse] {
	mode := opts.Mode
	if mode == "" {
		mode = schema.ModeTools
	}
	toolName := opts.ToolName
	if toolName == "" && mode.IsToolCall() && opts.Model != nil {
		toolName = opts.Model.ToolName
	}

	var r reduce.Reducer[Aggregate[T], Frame[T]] = AggregateReducer[T](opts.AccumulatePartials)
	r = EventTap[T](opts.Events, toolName)(r)
	r = DeserializeValidateDedupe[Aggregate[T], T](opts.Model, opts.Capabilities)(r)
	return reduce.New(ExtractDelta[Aggregate[T], T](mode)(r))
}
