package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/kbukum/structured/llm"
)

// DefaultToolName is the tool name used when a model does not set one.
const DefaultToolName = "extracted_data"

// Kind selects how a response value is constructed from the returned object.
type Kind int

const (
	// KindObject decodes the returned object directly.
	KindObject Kind = iota
	// KindScalar decodes the "value" property of the returned object.
	KindScalar
	// KindSequence decodes the "list" property of the returned object.
	KindSequence
)

// Wrapper property names for scalar and sequence models.
const (
	ScalarKey   = "value"
	SequenceKey = "list"
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	default:
		return "object"
	}
}

// ResponseModel describes the structured response expected from the model.
type ResponseModel struct {
	// Name identifies the target type in logs, errors and tool descriptions.
	Name string
	// Kind selects the construction strategy.
	Kind Kind
	// Schema is the JSON Schema of the returned object, including any wrapper.
	Schema *jsonschema.Schema
	// ToolName is the tool the model must call in tool modes.
	ToolName string
	// ToolDescription describes the tool to the model.
	ToolDescription string

	partialOnce sync.Once
	partial     *jsonschema.Resolved
	partialErr  error

	fullOnce sync.Once
	full     fullValidator
	fullErr  error
}

// ModelOption configures a ResponseModel.
type ModelOption func(*ResponseModel)

// WithToolName sets the tool name expected in tool modes.
func WithToolName(name string) ModelOption {
	return func(m *ResponseModel) { m.ToolName = name }
}

// WithDescription sets the tool description.
func WithDescription(desc string) ModelOption {
	return func(m *ResponseModel) { m.ToolDescription = desc }
}

// Object describes a response decoded directly from the returned object.
func Object(name string, s *jsonschema.Schema, opts ...ModelOption) *ResponseModel {
	return newModel(name, KindObject, s, opts)
}

// Scalar describes a single value wrapped as {"value": ...}.
func Scalar(name string, value *jsonschema.Schema, opts ...ModelOption) *ResponseModel {
	return newModel(name, KindScalar, wrap(ScalarKey, value), opts)
}

// Sequence describes a list wrapped as {"list": [...]}.
func Sequence(name string, item *jsonschema.Schema, opts ...ModelOption) *ResponseModel {
	list := &jsonschema.Schema{Type: "array", Items: item}
	return newModel(name, KindSequence, wrap(SequenceKey, list), opts)
}

// FromJSON parses a JSON Schema document into an object model.
func FromJSON(name string, raw []byte, opts ...ModelOption) (*ResponseModel, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse schema for %s: %w", name, err)
	}
	return Object(name, &s, opts...), nil
}

func newModel(name string, kind Kind, s *jsonschema.Schema, opts []ModelOption) *ResponseModel {
	if s == nil {
		s = &jsonschema.Schema{Type: "object"}
	}
	m := &ResponseModel{Name: name, Kind: kind, Schema: s}
	for _, opt := range opts {
		opt(m)
	}
	if m.ToolName == "" {
		m.ToolName = DefaultToolName
	}
	if m.ToolDescription == "" {
		m.ToolDescription = fmt.Sprintf("Correctly extracted `%s` with all the required parameters with correct types", name)
	}
	return m
}

func wrap(key string, inner *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{key: inner},
		Required:   []string{key},
	}
}

// UnwrapKey returns the wrapper property for scalar and sequence models, or "".
func (m *ResponseModel) UnwrapKey() string {
	switch m.Kind {
	case KindScalar:
		return ScalarKey
	case KindSequence:
		return SequenceKey
	default:
		return ""
	}
}

// Unwrap extracts the wrapped value from parsed JSON. Object models and
// values without the wrapper are returned unchanged.
func (m *ResponseModel) Unwrap(data any) any {
	key := m.UnwrapKey()
	if key == "" {
		return data
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return data
	}
	if v, ok := obj[key]; ok {
		return v
	}
	return data
}

// JSONSchema returns the schema as a generic JSON document.
func (m *ResponseModel) JSONSchema() map[string]any {
	raw, err := json.Marshal(m.Schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}

// Tool returns the tool definition for tool modes.
func (m *ResponseModel) Tool() llm.Tool {
	return llm.Tool{
		Name:        m.ToolName,
		Description: m.ToolDescription,
		Parameters:  m.JSONSchema(),
	}
}

// Prepare returns a copy of req configured for mode: the tool definition in
// tool modes, the response schema in schema modes.
func (m *ResponseModel) Prepare(req llm.Request, mode Mode) llm.Request {
	out := req
	out.Mode = mode.String()
	switch mode {
	case ModeTools:
		tool := m.Tool()
		out.Tool = &tool
	case ModeJSONSchema:
		out.ResponseSchema = m.JSONSchema()
	case ModeJSON, ModeMdJSON:
		out.SystemPrompt = joinPrompt(out.SystemPrompt, m.instructions(mode))
	}
	return out
}

func (m *ResponseModel) instructions(mode Mode) string {
	raw, _ := json.MarshalIndent(m.Schema, "", "  ")
	text := "Respond with a JSON object that is an instance of this JSON Schema, not the schema itself:\n\n" + string(raw)
	if mode == ModeMdJSON {
		text += "\n\nReturn the object inside a ```json code block."
	}
	return text
}

func joinPrompt(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "\n\n" + extra
}
