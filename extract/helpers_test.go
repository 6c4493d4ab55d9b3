package extract

import (
	"context"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/kbukum/structured/jsonbuf"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/reduce"
	"github.com/kbukum/structured/schema"
)

type kv struct {
	Key string `json:"key"`
}

func kvModel() *schema.ResponseModel {
	return schema.Object("KV", &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{"key": {Type: "string"}},
		Required:   []string{"key"},
	})
}

func content(deltas ...string) []llm.PartialResponse {
	out := make([]llm.PartialResponse, len(deltas))
	for i, d := range deltas {
		out[i] = llm.PartialResponse{ContentDelta: d}
	}
	return out
}

func bufferFrame[T any](raw string) Frame[T] {
	return Frame[T]{Buffer: jsonbuf.New(raw), Delta: raw}
}

// frames runs ExtractDelta and DeserializeValidateDedupe and collects the
// resulting frames.
func frames[T any](t *testing.T, mode schema.Mode, caps Capabilities[T], resps []llm.PartialResponse) []Frame[T] {
	t.Helper()
	var r reduce.Reducer[[]Frame[T], Frame[T]] = reduce.Collect[Frame[T]]()
	r = DeserializeValidateDedupe[[]Frame[T], T](kvModel(), caps)(r)
	x := reduce.New(ExtractDelta[[]Frame[T], T](mode)(r))
	out, err := x.ExecuteOn(context.Background(), pipeline.FromSlice(resps))
	if err != nil {
		t.Fatalf("ExecuteOn: %v", err)
	}
	return out
}

func emissions[T any](fs []Frame[T]) []EmissionType {
	out := make([]EmissionType, len(fs))
	for i, f := range fs {
		out[i] = f.Emission
	}
	return out
}

func toolResp(id, name, args string) llm.PartialResponse {
	return llm.PartialResponse{ToolID: id, ToolName: name, ToolArgsDelta: args}
}
