package anthropic

import (
	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/kbukum/structured/llm"
)

// Mapper converts Messages stream events into partial responses for one
// stream.
//
// Anthropic reports input tokens on message_start and the running output
// count on message_delta. The mapper keeps the merged snapshot and attaches
// it to the finish record emitted on message_stop.
type Mapper struct {
	tools map[int64]string
	usage llm.Usage
	stop  string
	done  bool
}

// NewMapper returns a mapper for a fresh stream.
func NewMapper() *Mapper {
	return &Mapper{tools: make(map[int64]string)}
}

// Map converts one event. It may return zero or more records.
func (m *Mapper) Map(event sdk.MessageStreamEventUnion) []llm.PartialResponse {
	if m.done {
		return nil
	}
	switch ev := event.AsAny().(type) {
	case sdk.MessageStartEvent:
		u := ev.Message.Usage
		m.usage = m.usage.Merge(llm.Usage{
			InputTokens:      int(u.InputTokens),
			OutputTokens:     int(u.OutputTokens),
			CacheWriteTokens: int(u.CacheCreationInputTokens),
			CacheReadTokens:  int(u.CacheReadInputTokens),
		})
	case sdk.ContentBlockStartEvent:
		if tool, ok := ev.ContentBlock.AsAny().(sdk.ToolUseBlock); ok {
			m.tools[ev.Index] = tool.ID
			return []llm.PartialResponse{{ToolID: tool.ID, ToolName: tool.Name}}
		}
	case sdk.ContentBlockDeltaEvent:
		switch delta := ev.Delta.AsAny().(type) {
		case sdk.TextDelta:
			if delta.Text != "" {
				return []llm.PartialResponse{{ContentDelta: delta.Text}}
			}
		case sdk.InputJSONDelta:
			if delta.PartialJSON != "" {
				return []llm.PartialResponse{{ToolID: m.tools[ev.Index], ToolArgsDelta: delta.PartialJSON}}
			}
		}
	case sdk.MessageDeltaEvent:
		if ev.Delta.StopReason != "" {
			m.stop = string(ev.Delta.StopReason)
		}
		u := ev.Usage
		m.usage = m.usage.Merge(llm.Usage{
			InputTokens:      int(u.InputTokens),
			OutputTokens:     int(u.OutputTokens),
			CacheWriteTokens: int(u.CacheCreationInputTokens),
			CacheReadTokens:  int(u.CacheReadInputTokens),
		})
	case sdk.MessageStopEvent:
		return []llm.PartialResponse{m.finish()}
	}
	return nil
}

// Flush emits the finish record when the stream ended after message_delta
// without a message_stop. It returns nil otherwise.
func (m *Mapper) Flush() []llm.PartialResponse {
	if m.done || m.stop == "" {
		return nil
	}
	return []llm.PartialResponse{m.finish()}
}

// Usage returns the merged usage seen so far.
func (m *Mapper) Usage() llm.Usage { return m.usage }

func (m *Mapper) finish() llm.PartialResponse {
	m.done = true
	return llm.PartialResponse{FinishReason: stopReason(m.stop), Usage: m.usage}
}

func stopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence", "":
		return llm.FinishStop
	case "tool_use":
		return llm.FinishToolCalls
	case "max_tokens":
		return llm.FinishLength
	case "refusal":
		return llm.FinishContentFilter
	default:
		return reason
	}
}
