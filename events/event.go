package events

import (
	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/llm"
)

// Event names.
const (
	NameChunkReceived     = "chunk_received"
	NameObjectReady       = "object_ready"
	NameToolCallStarted   = "tool_call_started"
	NameToolCallUpdated   = "tool_call_updated"
	NameToolCallCompleted = "tool_call_completed"
	NameStreamReceived    = "stream_received"
	NameAttemptStarted    = "attempt_started"
	NameAttemptFailed     = "attempt_failed"
	NameResponseCompleted = "response_completed"
)

// Event is a pipeline notification.
type Event interface {
	// Name returns the event's stable name.
	Name() string
	// Fields returns a flat, JSON-encodable view of the event.
	Fields() map[string]any
}

// ChunkReceived fires once per forwarded frame.
type ChunkReceived struct {
	Response llm.PartialResponse
	Index    int
}

func (ChunkReceived) Name() string { return NameChunkReceived }

func (e ChunkReceived) Fields() map[string]any {
	f := map[string]any{"index": e.Index}
	if e.Response.ContentDelta != "" {
		f["content_delta"] = e.Response.ContentDelta
	}
	if e.Response.ToolArgsDelta != "" {
		f["tool_args_delta"] = e.Response.ToolArgsDelta
	}
	if e.Response.FinishReason != "" {
		f["finish_reason"] = e.Response.FinishReason
	}
	return f
}

// ObjectReady fires when a frame carries a new object.
type ObjectReady struct {
	Object any
	Index  int
}

func (ObjectReady) Name() string { return NameObjectReady }

func (e ObjectReady) Fields() map[string]any {
	return map[string]any{"object": e.Object, "index": e.Index}
}

// ToolCallStarted fires on the first frame of an expected tool call.
type ToolCallStarted struct {
	ID       string
	ToolName string
}

func (ToolCallStarted) Name() string { return NameToolCallStarted }

func (e ToolCallStarted) Fields() map[string]any {
	return map[string]any{"id": e.ID, "name": e.ToolName}
}

// ToolCallUpdated fires for every non-empty argument delta.
type ToolCallUpdated struct {
	ID        string
	ArgsDelta string
}

func (ToolCallUpdated) Name() string { return NameToolCallUpdated }

func (e ToolCallUpdated) Fields() map[string]any {
	return map[string]any{"id": e.ID, "args_delta": e.ArgsDelta}
}

// ToolCallCompleted fires once per started call when the stream completes.
type ToolCallCompleted struct {
	ID       string
	ToolName string
	Args     string
}

func (ToolCallCompleted) Name() string { return NameToolCallCompleted }

func (e ToolCallCompleted) Fields() map[string]any {
	return map[string]any{"id": e.ID, "name": e.ToolName, "args": e.Args}
}

// StreamReceived fires after the stream aggregate completes. Aggregate holds
// the typed aggregate; the other fields summarize it.
type StreamReceived struct {
	Aggregate    any
	Content      string
	FinishReason string
	Usage        llm.Usage
	HasObject    bool
}

func (StreamReceived) Name() string { return NameStreamReceived }

func (e StreamReceived) Fields() map[string]any {
	return map[string]any{
		"content_length": len(e.Content),
		"finish_reason":  e.FinishReason,
		"usage":          e.Usage,
		"has_object":     e.HasObject,
	}
}

// AttemptStarted fires before an attempt opens its stream.
type AttemptStarted struct {
	Attempt     int
	MaxAttempts int
}

func (AttemptStarted) Name() string { return NameAttemptStarted }

func (e AttemptStarted) Fields() map[string]any {
	return map[string]any{"attempt": e.Attempt, "max_attempts": e.MaxAttempts}
}

// AttemptFailed fires when an attempt ends without a valid object.
type AttemptFailed struct {
	Attempt int
	Err     error
	Retry   bool
}

func (AttemptFailed) Name() string { return NameAttemptFailed }

func (e AttemptFailed) Fields() map[string]any {
	f := map[string]any{"attempt": e.Attempt, "retry": e.Retry}
	if e.Err != nil {
		f["error"] = e.Err.Error()
		f["error_code"] = string(errors.CodeOf(e.Err))
	}
	return f
}

// ResponseCompleted fires once when an extraction ends, successfully or not.
type ResponseCompleted struct {
	Attempts int
	Object   any
	Usage    llm.Usage
	Err      error
}

func (ResponseCompleted) Name() string { return NameResponseCompleted }

func (e ResponseCompleted) Fields() map[string]any {
	f := map[string]any{"attempts": e.Attempts, "usage": e.Usage}
	if e.Err != nil {
		f["error"] = e.Err.Error()
		f["error_code"] = string(errors.CodeOf(e.Err))
	} else {
		f["object"] = e.Object
	}
	return f
}
