package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"

	apperrors "github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/provider"
	"github.com/kbukum/structured/schema"
)

// ProviderName identifies this driver in logs, metrics, and errors.
const ProviderName = "openai"

// defaultSchemaName names the json_schema response format when no tool
// name is available.
const defaultSchemaName = "response"

// CompletionsClient captures the subset of the SDK used by the driver.
// *openai.ChatCompletionService satisfies it.
type CompletionsClient interface {
	NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk]
}

// Options configures the driver.
type Options struct {
	// Model is used when the request does not name one.
	Model string
	// MaxTokens is used when the request does not set one. 0 leaves the
	// provider default.
	MaxTokens int
	// Strict requests strict schema adherence in json_schema mode.
	Strict bool
}

// Stream opens chat-completion streams and adapts them into partial
// responses. It implements provider.Stream[llm.Request, llm.PartialResponse].
type Stream struct {
	client CompletionsClient
	opts   Options
}

var _ provider.Stream[llm.Request, llm.PartialResponse] = (*Stream)(nil)

// New builds a driver on top of an existing completions client.
func New(client CompletionsClient, opts Options) (*Stream, error) {
	if client == nil {
		return nil, apperrors.InvalidInput("client", "client is required")
	}
	return &Stream{client: client, opts: opts}, nil
}

// NewFromAPIKey builds a driver with the default SDK client. baseURL may be
// empty for the public endpoint.
func NewFromAPIKey(apiKey, baseURL string, opts Options) (*Stream, error) {
	if apiKey == "" {
		return nil, apperrors.InvalidInput("api_key", "api key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(reqOpts...)
	return New(&client.Chat.Completions, opts)
}

// Name returns the provider name.
func (s *Stream) Name() string { return ProviderName }

// IsAvailable always reports true; availability is learned from Execute.
func (s *Stream) IsAvailable(context.Context) bool { return true }

// Execute opens a stream for req. Errors raised while opening or reading
// are reported as transport errors.
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

// Params converts a provider-neutral request into SDK parameters.
func (s *Stream) Params(req llm.Request) (openai.ChatCompletionNewParams, error) {
	model := req.Model
	if model == "" {
		model = s.opts.Model
	}
	if model == "" {
		return openai.ChatCompletionNewParams{}, apperrors.InvalidInput("model", "model is required")
	}
	msgs, err := encodeMessages(req)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    model,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: param.NewOpt(true),
		},
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.opts.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(maxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}

	switch schema.Mode(req.Mode) {
	case schema.ModeTools:
		if req.Tool == nil {
			return openai.ChatCompletionNewParams{}, apperrors.InvalidInput("tool", "tools mode requires a tool")
		}
		fn := openai.FunctionDefinitionParam{
			Name:       req.Tool.Name,
			Parameters: req.Tool.Parameters,
		}
		if req.Tool.Description != "" {
			fn.Description = param.NewOpt(req.Tool.Description)
		}
		params.Tools = []openai.ChatCompletionToolParam{{Function: fn}}
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: req.Tool.Name},
			},
		}
	case schema.ModeJSONSchema:
		name := defaultSchemaName
		if req.Tool != nil && req.Tool.Name != "" {
			name = req.Tool.Name
		}
		format := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   name,
			Schema: req.ResponseSchema,
		}
		if s.opts.Strict {
			format.Strict = param.NewOpt(true)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: format},
		}
	case schema.ModeJSON:
		obj := shared.NewResponseFormatJSONObjectParam()
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &obj}
	}
	if len(req.Extra) > 0 {
		params.SetExtraFields(req.Extra)
	}
	return params, nil
}

func encodeMessages(req llm.Request) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		out = append(out, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case llm.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			return nil, apperrors.InvalidInput("messages", "unsupported role "+string(m.Role))
		}
	}
	if len(out) == 0 {
		return nil, apperrors.InvalidInput("messages", "at least one message is required")
	}
	return out, nil
}

func iterate(stream *ssestream.Stream[openai.ChatCompletionChunk], m *Mapper) pipeline.Iterator[llm.PartialResponse] {
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
// are not worth retrying.
func transportError(err error) *apperrors.AppError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Canceled(err)
	}
	appErr := apperrors.Transport(ProviderName, err)
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		appErr.WithDetail("status", apiErr.StatusCode)
		if apiErr.StatusCode < http.StatusInternalServerError && apiErr.StatusCode != http.StatusTooManyRequests {
			appErr.Retryable = false
		}
	}
	return appErr
}
