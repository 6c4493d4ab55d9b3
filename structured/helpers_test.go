package structured

import (
	"context"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/logger"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/schema"
)

type user struct {
	Name string `json:"name"`
	Age  int    `json:"age" validate:"gte=0"`
}

func userModel() *schema.ResponseModel {
	return schema.Object("User", &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {Type: "string"},
			"age":  {Type: "integer"},
		},
		Required: []string{"name", "age"},
	})
}

// jsonAttempt splits text into small content deltas followed by a finish
// record carrying usage.
func jsonAttempt(text string, usage llm.Usage) []llm.PartialResponse {
	var out []llm.PartialResponse
	for len(text) > 0 {
		n := min(5, len(text))
		out = append(out, llm.PartialResponse{ContentDelta: text[:n]})
		text = text[n:]
	}
	return append(out, llm.PartialResponse{FinishReason: llm.FinishStop, Usage: usage})
}

func toolAttempt(tool, args string) []llm.PartialResponse {
	return []llm.PartialResponse{
		{ToolID: "call_1", ToolName: tool},
		{ToolArgsDelta: args},
		{FinishReason: llm.FinishToolCalls},
	}
}

// script is a stream provider replaying one response list per attempt.
// The last list repeats once the script runs out.
type script struct {
	mu        sync.Mutex
	attempts  [][]llm.PartialResponse
	openErrs  []error
	streamErr error
	requests  []llm.Request
	closes    int
}

func (s *script) Name() string                     { return "script" }
func (s *script) IsAvailable(context.Context) bool { return true }

func (s *script) Execute(_ context.Context, req llm.Request) (pipeline.Iterator[llm.PartialResponse], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.requests)
	s.requests = append(s.requests, req)
	if n < len(s.openErrs) && s.openErrs[n] != nil {
		return nil, s.openErrs[n]
	}
	resps := s.attempts[min(n, len(s.attempts)-1)]
	i := 0
	return pipeline.FromFunc(func(context.Context) (llm.PartialResponse, bool, error) {
		if i >= len(resps) {
			if s.streamErr != nil {
				return llm.PartialResponse{}, false, s.streamErr
			}
			return llm.PartialResponse{}, false, nil
		}
		i++
		return resps[i-1], true, nil
	}, func() error {
		s.mu.Lock()
		s.closes++
		s.mu.Unlock()
		return nil
	}), nil
}

func (s *script) opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func quiet[T any]() Option[T] { return WithLogger[T](logger.Nop()) }

func userRequest() llm.Request {
	return llm.Request{Messages: []llm.Message{{Role: llm.RoleUser, Content: "Al is 30"}}}
}
