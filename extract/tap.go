package extract

import (
	"github.com/kbukum/structured/events"
	"github.com/kbukum/structured/reduce"
)

// EventTap forwards frames unchanged and dispatches events as a side
// effect: ChunkReceived per frame, ObjectReady per emitted object, tool-call
// events for calls to toolName, and StreamReceived with the completed
// aggregate. Tool calls are not tracked when toolName is empty.
func EventTap[T any](d events.Dispatcher, toolName string) reduce.Transducer[Aggregate[T], Frame[T], Frame[T]] {
	if d == nil {
		d = events.Discard
	}
	return func(inner reduce.Reducer[Aggregate[T], Frame[T]]) reduce.Reducer[Aggregate[T], Frame[T]] {
		t := &tap[T]{inner: inner, d: d, toolName: toolName}
		if toolName != "" {
			t.calls = NewToolCallAccumulator(toolName)
		}
		return t
	}
}

type tap[T any] struct {
	inner    reduce.Reducer[Aggregate[T], Frame[T]]
	d        events.Dispatcher
	toolName string
	calls    *ToolCallAccumulator
}

func (t *tap[T]) Init() Aggregate[T] {
	if t.calls != nil {
		t.calls.Reset()
	}
	return t.inner.Init()
}

func (t *tap[T]) Step(acc Aggregate[T], f Frame[T]) (Aggregate[T], bool) {
	t.d.Dispatch(events.ChunkReceived{Response: f.Response, Index: f.Index})
	if f.Emission == EmissionObjectReady {
		t.d.Dispatch(events.ObjectReady{Object: f.Result.Value(), Index: f.Index})
	}
	if t.calls != nil {
		change := t.calls.Observe(f.Response)
		if change.Started {
			t.d.Dispatch(events.ToolCallStarted{ID: change.Call.ID, ToolName: change.Call.Name})
		}
		if change.Tracked && change.ArgsDelta != "" {
			t.d.Dispatch(events.ToolCallUpdated{ID: change.Call.ID, ArgsDelta: change.ArgsDelta})
		}
	}
	return t.inner.Step(acc, f)
}

func (t *tap[T]) Complete(acc Aggregate[T]) Aggregate[T] {
	acc = t.inner.Complete(acc)
	if t.calls != nil {
		for _, c := range t.calls.Calls() {
			t.d.Dispatch(events.ToolCallCompleted{ID: c.ID, ToolName: c.Name, Args: c.Args})
		}
	}
	t.d.Dispatch(events.StreamReceived{
		Aggregate:    acc,
		Content:      acc.Content,
		FinishReason: acc.FinishReason,
		Usage:        acc.Usage,
		HasObject:    acc.HasObject,
	})
	return acc
}
