package extract

import (
	"github.com/google/uuid"

	"github.com/kbukum/structured/jsonbuf"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/reduce"
	"github.com/kbukum/structured/schema"
)

// ExtractDelta turns partial responses into frames, growing the attempt's
// buffer with the text relevant to mode. Content modes read ContentDelta;
// tool mode reads ToolArgsDelta and falls back to ContentDelta.
//
// A record with no delta and no finish reason is dropped, except in tool
// mode when it names a tool. Tool calls without an id get one, and later
// argument deltas inherit the id of the call they continue. A record that
// repeats the open call's tool name without an id continues that call.
func ExtractDelta[A, T any](mode schema.Mode) reduce.Transducer[A, llm.PartialResponse, Frame[T]] {
	return func(inner reduce.Reducer[A, Frame[T]]) reduce.Reducer[A, llm.PartialResponse] {
		return &extractDelta[A, T]{inner: inner, mode: mode}
	}
}

type extractDelta[A, T any] struct {
	inner  reduce.Reducer[A, Frame[T]]
	mode   schema.Mode
	buffer jsonbuf.Buffer
	index    int
	toolID   string
	toolName string
}

func (x *extractDelta[A, T]) Init() A {
	x.buffer = jsonbuf.Empty()
	x.index = 0
	x.toolID = ""
	x.toolName = ""
	return x.inner.Init()
}

func (x *extractDelta[A, T]) Step(acc A, resp llm.PartialResponse) (A, bool) {
	resp = x.identify(resp)
	delta := x.delta(resp)
	if delta == "" && !resp.IsFinished() && !x.introducesTool(resp) {
		return acc, false
	}
	x.buffer = x.buffer.Assemble(delta)
	frame := Frame[T]{
		Response: resp,
		Buffer:   x.buffer,
		Delta:    delta,
		Index:    x.index,
	}
	x.index++
	return x.inner.Step(acc, frame)
}

func (x *extractDelta[A, T]) Complete(acc A) A { return x.inner.Complete(acc) }

func (x *extractDelta[A, T]) delta(resp llm.PartialResponse) string {
	if x.mode.IsToolCall() && resp.ToolArgsDelta != "" {
		return resp.ToolArgsDelta
	}
	return resp.ContentDelta
}

func (x *extractDelta[A, T]) introducesTool(resp llm.PartialResponse) bool {
	return x.mode.IsToolCall() && resp.ToolName != ""
}

func (x *extractDelta[A, T]) identify(resp llm.PartialResponse) llm.PartialResponse {
	switch {
	case resp.ToolName != "":
		if resp.ToolID == "" {
			if x.toolID != "" && resp.ToolName == x.toolName {
				resp.ToolID = x.toolID
			} else {
				resp.ToolID = "call_" + uuid.NewString()
			}
		}
		x.toolID = resp.ToolID
		x.toolName = resp.ToolName
	case resp.ToolID != "":
		x.toolID = resp.ToolID
	case resp.ToolArgsDelta != "":
		resp.ToolID = x.toolID
	}
	return resp
}
