package extract

import "github.com/kbukum/structured/llm"

// ToolCallChange describes what one record did to the tracked calls.
type ToolCallChange struct {
	// Started is set when the record opened a new call.
	Started bool
	// ArgsDelta is the argument text appended to Call, if any.
	ArgsDelta string
	// Call is the current call after the record, when one is open.
	Call llm.ToolCall
	// Tracked reports whether Call is set.
	Tracked bool
}

// ToolCallAccumulator rebuilds tool calls from streamed records, keyed by
// call id. The name is set once when a call opens; argument deltas are
// appended to the open call. A record naming another tool closes the open
// call. With a non-empty expected name, calls to other tools are ignored.
type ToolCallAccumulator struct {
	expected string
	calls    []llm.ToolCall
	byID     map[string]int
	current  int
}

// NewToolCallAccumulator creates an accumulator. An empty expected name
// tracks every call.
func NewToolCallAccumulator(expected string) *ToolCallAccumulator {
	a := &ToolCallAccumulator{expected: expected}
	a.Reset()
	return a
}

// Reset forgets every call.
func (a *ToolCallAccumulator) Reset() {
	a.calls = nil
	a.byID = make(map[string]int)
	a.current = -1
}

// Observe folds one record into the accumulator.
func (a *ToolCallAccumulator) Observe(resp llm.PartialResponse) ToolCallChange {
	var change ToolCallChange
	switch {
	case resp.ToolName != "":
		if a.expected != "" && resp.ToolName != a.expected {
			a.current = -1
			return change
		}
		if i, ok := a.byID[resp.ToolID]; ok {
			a.current = i
			break
		}
		a.calls = append(a.calls, llm.ToolCall{ID: resp.ToolID, Name: resp.ToolName})
		a.current = len(a.calls) - 1
		a.byID[resp.ToolID] = a.current
		change.Started = true
	case resp.ToolID != "":
		if i, ok := a.byID[resp.ToolID]; ok {
			a.current = i
		}
	}
	if a.current < 0 {
		return change
	}
	if resp.ToolArgsDelta != "" {
		a.calls[a.current].Args += resp.ToolArgsDelta
		change.ArgsDelta = resp.ToolArgsDelta
	}
	change.Call = a.calls[a.current]
	change.Tracked = true
	return change
}

// Calls returns a copy of the calls seen so far, in start order.
func (a *ToolCallAccumulator) Calls() []llm.ToolCall {
	if len(a.calls) == 0 {
		return nil
	}
	out := make([]llm.ToolCall, len(a.calls))
	copy(out, a.calls)
	return out
}

// Len returns the number of calls seen.
func (a *ToolCallAccumulator) Len() int { return len(a.calls) }
