package openai

import (
	"github.com/openai/openai-go"

	"github.com/kbukum/structured/llm"
)

// OpenAI finish reasons.
const (
	finishStop          = "stop"
	finishToolCalls     = "tool_calls"
	finishFunctionCall  = "function_call"
	finishLength        = "length"
	finishContentFilter = "content_filter"
)

// Mapper converts chat-completion chunks into partial responses for one
// stream. It follows the first choice only.
//
// With include_usage the API sends usage in a trailing chunk that has no
// choices, after the chunk carrying finish_reason. The finish record is
// held until that chunk arrives (or Flush is called) so that it carries
// the final usage.
type Mapper struct {
	choice  int64
	tools   map[int64]string
	usage   llm.Usage
	pending *llm.PartialResponse
	done    bool
}

// NewMapper returns a mapper for a fresh stream.
func NewMapper() *Mapper {
	return &Mapper{tools: make(map[int64]string)}
}

// Map converts one chunk. It may return zero or more records.
func (m *Mapper) Map(chunk openai.ChatCompletionChunk) []llm.PartialResponse {
	if m.done {
		return nil
	}
	var out []llm.PartialResponse
	u, hasUsage := convUsage(chunk.Usage)
	if hasUsage {
		m.usage = u
	}
	for i := range chunk.Choices {
		c := &chunk.Choices[i]
		if c.Index != m.choice {
			continue
		}
		if c.Delta.Content != "" {
			out = append(out, llm.PartialResponse{ContentDelta: c.Delta.Content})
		}
		for _, t := range c.Delta.ToolCalls {
			id := t.ID
			if id != "" {
				m.tools[t.Index] = id
			} else {
				id = m.tools[t.Index]
			}
			if t.Function.Name == "" && t.Function.Arguments == "" {
				continue
			}
			out = append(out, llm.PartialResponse{
				ToolID:        id,
				ToolName:      t.Function.Name,
				ToolArgsDelta: t.Function.Arguments,
			})
		}
		if c.FinishReason != "" {
			m.pending = &llm.PartialResponse{FinishReason: finishReason(c.FinishReason)}
		}
	}
	// Usage in the same chunk as finish_reason, or the trailing usage chunk.
	if m.pending != nil && hasUsage {
		out = append(out, m.release())
	}
	return out
}

// Flush releases a held finish record at end of stream. It returns nil if
// the stream never reported a finish reason.
func (m *Mapper) Flush() []llm.PartialResponse {
	if m.done || m.pending == nil {
		return nil
	}
	return []llm.PartialResponse{m.release()}
}

// Usage returns the latest usage seen.
func (m *Mapper) Usage() llm.Usage { return m.usage }

func (m *Mapper) release() llm.PartialResponse {
	rec := *m.pending
	rec.Usage = m.usage
	m.pending = nil
	m.done = true
	return rec
}

func finishReason(reason string) string {
	switch reason {
	case finishStop:
		return llm.FinishStop
	case finishToolCalls, finishFunctionCall:
		return llm.FinishToolCalls
	case finishLength:
		return llm.FinishLength
	case finishContentFilter:
		return llm.FinishContentFilter
	default:
		return reason
	}
}

func convUsage(u openai.CompletionUsage) (llm.Usage, bool) {
	if u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return llm.Usage{}, false
	}
	return llm.Usage{
		InputTokens:     int(u.PromptTokens),
		OutputTokens:    int(u.CompletionTokens),
		CacheReadTokens: int(u.PromptTokensDetails.CachedTokens),
	}, true
}
