package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	apperrors "github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/provider"
	"github.com/kbukum/structured/schema"
)

// ProviderName identifies this driver in logs, metrics, and errors.
const ProviderName = "anthropic"

// DefaultMaxTokens is sent when neither the request nor the options set a
// limit; the Messages API requires one.
const DefaultMaxTokens = 4096

// MessagesClient captures the subset of the SDK used by the driver.
// *sdk.MessageService satisfies it.
type MessagesClient interface {
	NewStreaming(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[sdk.MessageStreamEventUnion]
}

// Options configures the driver.
type Options struct {
	// Model is used when the request does not name one.
	Model string
	// MaxTokens is used when the request does not set one.
	MaxTokens int
}

// Stream opens Messages streams and adapts them into partial responses.
// It implements provider.Stream[llm.Request, llm.PartialResponse].
type Stream struct {
	client MessagesClient
	opts   Options
}

var _ provider.Stream[llm.Request, llm.PartialResponse] = (*Stream)(nil)

// New builds a driver on top of an existing messages client.
func New(client MessagesClient, opts Options) (*Stream, error) {
	if client == nil {
		return nil, apperrors.InvalidInput("client", "client is required")
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Stream{client: client, opts: opts}, nil
}

// NewFromAPIKey builds a driver with the default SDK client.
func NewFromAPIKey(apiKey string, opts Options) (*Stream, error) {
	if apiKey == "" {
		return nil, apperrors.InvalidInput("api_key", "api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&client.Messages, opts)
}

// Name returns the provider name.
func (s *Stream) Name() string { return ProviderName }

// IsAvailable always reports true; availability is learned from Execute.
func (s *Stream) IsAvailable(context.Context) bool { return true }

// Execute opens a stream for req.
func (s *Stream) Execute(ctx context.Context, req llm.Request) (pipeline.Iterator[llm.PartialResponse], error) {
	params, err := s.Params(req)
	if err != nil {
		return nil, err
	}
	stream := s.client.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, transportError(err)
	}
	return iterate(stream, NewMapper()), nil
}

// Params converts a provider-neutral request into SDK parameters. Anthropic
// has no native JSON output format, so json_schema mode falls back to
// schema instructions in the system prompt.
func (s *Stream) Params(req llm.Request) (sdk.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = s.opts.Model
	}
	if model == "" {
		return sdk.MessageNewParams{}, apperrors.InvalidInput("model", "model is required")
	}
	system := req.SystemPrompt
	if schema.Mode(req.Mode) == schema.ModeJSONSchema && len(req.ResponseSchema) > 0 {
		raw, err := json.Marshal(req.ResponseSchema)
		if err != nil {
			return sdk.MessageNewParams{}, apperrors.InvalidInput("response_schema", err.Error())
		}
		system = joinPrompt(system, "Respond only with a JSON object matching this JSON Schema:\n"+string(raw))
	}
	msgs, extraSystem, err := encodeMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.opts.MaxTokens
	}
	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
		Model:     sdk.Model(model),
	}
	if system != "" {
		params.System = append(params.System, sdk.TextBlockParam{Text: system})
	}
	params.System = append(params.System, extraSystem...)
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if schema.Mode(req.Mode) == schema.ModeTools {
		if req.Tool == nil {
			return sdk.MessageNewParams{}, apperrors.InvalidInput("tool", "tools mode requires a tool")
		}
		tool := sdk.ToolUnionParamOfTool(toolInputSchema(req.Tool.Parameters), req.Tool.Name)
		if tool.OfTool != nil && req.Tool.Description != "" {
			tool.OfTool.Description = sdk.String(req.Tool.Description)
		}
		params.Tools = []sdk.ToolUnionParam{tool}
		params.ToolChoice = sdk.ToolChoiceParamOfTool(req.Tool.Name)
	}
	return params, nil
}

func encodeMessages(msgs []llm.Message) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(msgs))
	var system []sdk.TextBlockParam
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			if m.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Content})
			}
		case llm.RoleUser:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			return nil, nil, apperrors.InvalidInput("messages", "unsupported role "+string(m.Role))
		}
	}
	if len(conversation) == 0 {
		return nil, nil, apperrors.InvalidInput("messages", "at least one user or assistant message is required")
	}
	return conversation, system, nil
}

// toolInputSchema splits a JSON Schema object into the SDK's typed fields
// and extras.
func toolInputSchema(params map[string]any) sdk.ToolInputSchemaParam {
	var out sdk.ToolInputSchemaParam
	extra := make(map[string]any)
	for k, v := range params {
		switch k {
		case "type":
		case "properties":
			out.Properties = v
		case "required":
			out.Required = stringSlice(v)
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		out.ExtraFields = extra
	}
	return out
}

func stringSlice(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func joinPrompt(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "\n\n" + extra
}

func iterate(stream *ssestream.Stream[sdk.MessageStreamEventUnion], m *Mapper) pipeline.Iterator[llm.PartialResponse] {
	var queue []llm.PartialResponse
	ended := false
	next := func(ctx context.Context) (llm.PartialResponse, bool, error) {
		for {
			if len(queue) > 0 {
				rec := queue[0]
				queue = queue[1:]
				return rec, true, nil
			}
			if ended {
				return llm.PartialResponse{}, false, nil
			}
			if err := ctx.Err(); err != nil {
				return llm.PartialResponse{}, false, err
			}
			if stream.Next() {
				queue = m.Map(stream.Current())
				continue
			}
			ended = true
			if err := stream.Err(); err != nil {
				return llm.PartialResponse{}, false, transportError(err)
			}
			queue = m.Flush()
		}
	}
	return pipeline.FromFunc(next, stream.Close)
}

// transportError wraps an SDK error. Client errors other than rate limits
// are not worth retrying; 529 (overloaded) is.
func transportError(err error) *apperrors.AppError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Canceled(err)
	}
	appErr := apperrors.Transport(ProviderName, err)
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		appErr.WithDetail("status", apiErr.StatusCode)
		if apiErr.StatusCode < http.StatusInternalServerError && apiErr.StatusCode != http.StatusTooManyRequests {
			appErr.Retryable = false
		}
	}
	return appErr
}
