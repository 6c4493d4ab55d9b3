package extract

import (
	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/reduce"
)

// Aggregate is the running state of one attempt.
type Aggregate[T any] struct {
	// Content is the text extracted for the response mode, in order.
	Content string
	// Object is the latest emitted object. Valid when HasObject.
	Object    T
	HasObject bool
	// Data is the parsed JSON Object was decoded from.
	Data any
	// Usage is the latest usage snapshot reported by the driver.
	Usage llm.Usage
	// FinishReason is the latest non-empty finish reason.
	FinishReason string
	ToolCalls    []llm.ToolCall
	// Partials holds every frame when history accumulation is on, nil otherwise.
	Partials []Frame[T]

	// Frames counts the frames folded in.
	Frames int
	// Index is the index of the last frame.
	Index int
	// Emission and Err describe the last frame.
	Emission EmissionType
	Err      error
	// Final is set by Complete.
	Final bool
}

// Get returns the object, or the reason there is none: the last frame's
// error, or a NO_OBJECT error.
func (a Aggregate[T]) Get() (T, error) {
	if a.Err != nil {
		var zero T
		return zero, a.Err
	}
	if !a.HasObject {
		var zero T
		return zero, errors.NoObject(a.FinishReason)
	}
	return a.Object, nil
}

// AggregateReducer folds frames into an Aggregate. Usage and finish reason
// are replaced, never summed. Frames are retained only when
// accumulatePartials is set.
func AggregateReducer[T any](accumulatePartials bool) reduce.Reducer[Aggregate[T], Frame[T]] {
	return &aggregator[T]{accumulate: accumulatePartials, calls: NewToolCallAccumulator("")}
}

type aggregator[T any] struct {
	accumulate bool
	calls      *ToolCallAccumulator
}

func (g *aggregator[T]) Init() Aggregate[T] {
	g.calls.Reset()
	return Aggregate[T]{}
}

func (g *aggregator[T]) Step(acc Aggregate[T], f Frame[T]) (Aggregate[T], bool) {
	acc.Content += f.Delta
	acc.Frames++
	acc.Index = f.Index
	acc.Emission = f.Emission
	acc.Err = f.Result.Err()

	if f.Emission == EmissionObjectReady {
		acc.Object = f.Result.Value()
		acc.HasObject = true
		acc.Data = f.Data
	}
	if f.Response.HasUsage() {
		acc.Usage = f.Response.Usage
	}
	if f.Response.FinishReason != "" {
		acc.FinishReason = f.Response.FinishReason
	}
	if f.Response.ToolName != "" || f.Response.ToolArgsDelta != "" {
		if g.calls.Observe(f.Response).Tracked {
			acc.ToolCalls = g.calls.Calls()
		}
	}
	if g.accumulate {
		acc.Partials = append(acc.Partials, f)
	}
	return acc, false
}

func (g *aggregator[T]) Complete(acc Aggregate[T]) Aggregate[T] {
	acc.Final = true
	return acc
}
