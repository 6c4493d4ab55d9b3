package extract

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/reduce"
	"github.com/kbukum/structured/schema"
)

var fragments = []string{"", "", `{"key"`, `: "a"`, `}`, ` `, `{"key": "b"}`, "x"}

func TestFrameProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("indices count forwarded frames from zero", prop.ForAll(
		func(picks []int, finish bool) bool {
			resps := make([]llm.PartialResponse, len(picks))
			forwarded := 0
			for i, p := range picks {
				resps[i] = llm.PartialResponse{ContentDelta: fragments[p]}
				if fragments[p] != "" {
					forwarded++
				}
			}
			if finish {
				resps = append(resps, llm.PartialResponse{FinishReason: llm.FinishStop})
				forwarded++
			}
			x := New(Options[kv]{Model: kvModel(), Mode: schema.ModeJSON, AccumulatePartials: true})
			for run := 0; run < 2; run++ {
				agg, err := x.ExecuteOn(context.Background(), pipeline.FromSlice(resps))
				if err != nil || len(agg.Partials) != forwarded {
					return false
				}
				raw := ""
				for i, f := range agg.Partials {
					raw += f.Delta
					if f.Index != i || f.Buffer.Raw() != raw {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(fragments)-1)),
		gen.Bool(),
	))

	properties.Property("object ready only when the fingerprint changes", prop.ForAll(
		func(picks []int) bool {
			keys := make([]string, len(picks))
			for i, p := range picks {
				keys[i] = string(rune('a' + p))
			}
			r := DeserializeValidateDedupe[[]Frame[kv], kv](kvModel(), Capabilities[kv]{})(reduce.Collect[Frame[kv]]())
			acc := r.Init()
			for _, k := range keys {
				acc, _ = r.Step(acc, bufferFrame[kv](`{"key":"`+k+`"}`))
			}
			last := ""
			for i, f := range acc {
				want := EmissionNone
				if i == 0 || keys[i] != last {
					want = EmissionObjectReady
				}
				if f.Emission != want {
					return false
				}
				last = keys[i]
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.Property("usage is the last reported snapshot", prop.ForAll(
		func(outputs []int) bool {
			resps := make([]llm.PartialResponse, len(outputs))
			var want llm.Usage
			for i, n := range outputs {
				resps[i] = llm.PartialResponse{ContentDelta: "x", Usage: llm.Usage{InputTokens: 150, OutputTokens: n}}
				want = llm.Usage{InputTokens: 150, OutputTokens: n}
			}
			x := New(Options[kv]{Model: kvModel(), Mode: schema.ModeJSON})
			agg, err := x.ExecuteOn(context.Background(), pipeline.FromSlice(resps))
			return err == nil && agg.Usage == want
		},
		gen.SliceOf(gen.IntRange(1, 1000)),
	))

	properties.TestingRun(t)
}
