package llm

import "slices"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Finish reasons reported on the last record of a response.
const (
	FinishStop          = "stop"
	FinishLength        = "length"
	FinishToolCalls     = "tool_calls"
	FinishContentFilter = "content_filter"
)

// Message represents a single chat message.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Tool describes the function the model is asked to call in tool mode.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Request is the provider-neutral input for one streamed completion.
type Request struct {
	// Model overrides the driver's default model.
	Model string `json:"model,omitempty" yaml:"model"`
	// Messages is the conversation history.
	Messages []Message `json:"messages" yaml:"messages"`
	// SystemPrompt is prepended as a system message.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt"`
	// Temperature controls randomness.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature"`
	// MaxTokens limits the response length. 0 means provider default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens"`
	// Mode is the output mode the response should follow (tools, json, ...).
	Mode string `json:"mode,omitempty" yaml:"mode"`
	// Tool is the function to force in tool modes.
	Tool *Tool `json:"tool,omitempty" yaml:"-"`
	// ResponseSchema is the JSON Schema for json_schema modes.
	ResponseSchema map[string]any `json:"response_schema,omitempty" yaml:"-"`
	// Extra holds driver-specific fields.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra"`
}

// WithFeedback returns a copy of r extended with the assistant's previous
// output and a corrective user message. The receiver's messages are not
// modified.
func (r Request) WithFeedback(assistantContent, feedback string) Request {
	out := r
	out.Messages = slices.Clone(r.Messages)
	out.Messages = append(out.Messages,
		Message{Role: RoleAssistant, Content: assistantContent},
		Message{Role: RoleUser, Content: feedback},
	)
	return out
}

// Usage is a token-consumption snapshot. Drivers report the latest
// cumulative value; consumers replace, never sum.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	CacheWriteTokens int `json:"cache_write_tokens,omitempty"`
	CacheReadTokens  int `json:"cache_read_tokens,omitempty"`
}

// IsZero reports whether no counts are set.
func (u Usage) IsZero() bool { return u == Usage{} }

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Merge overlays the non-zero fields of next onto u.
func (u Usage) Merge(next Usage) Usage {
	if next.InputTokens != 0 {
		u.InputTokens = next.InputTokens
	}
	if next.OutputTokens != 0 {
		u.OutputTokens = next.OutputTokens
	}
	if next.CacheWriteTokens != 0 {
		u.CacheWriteTokens = next.CacheWriteTokens
	}
	if next.CacheReadTokens != 0 {
		u.CacheReadTokens = next.CacheReadTokens
	}
	return u
}

// PartialResponse is one normalized record from a streamed response.
type PartialResponse struct {
	// ContentDelta is new assistant text.
	ContentDelta string `json:"content_delta,omitempty"`
	// ToolID identifies the tool call the args delta belongs to.
	ToolID string `json:"tool_id,omitempty"`
	// ToolName is set when a tool call starts.
	ToolName string `json:"tool_name,omitempty"`
	// ToolArgsDelta is new tool-argument text.
	ToolArgsDelta string `json:"tool_args_delta,omitempty"`
	// FinishReason is non-empty on the last record only.
	FinishReason string `json:"finish_reason,omitempty"`
	// Usage is the latest cumulative usage, zero when not reported.
	Usage Usage `json:"usage,omitzero"`
}

// IsFinished reports whether this record ends the response.
func (p PartialResponse) IsFinished() bool { return p.FinishReason != "" }

// HasUsage reports whether the record carries a usage snapshot.
func (p PartialResponse) HasUsage() bool { return !p.Usage.IsZero() }

// ToolCall is a reconstructed tool invocation.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"`
}

// Add sums two usage snapshots. Use it across separate requests, never
// across records of the same stream.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:      u.InputTokens + o.InputTokens,
		OutputTokens:     u.OutputTokens + o.OutputTokens,
		CacheWriteTokens: u.CacheWriteTokens + o.CacheWriteTokens,
		CacheReadTokens:  u.CacheReadTokens + o.CacheReadTokens,
	}
}
