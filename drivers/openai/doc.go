// Package openai adapts OpenAI chat-completion streams into
// llm.PartialResponse records.
//
// Stream implements provider.Stream[llm.Request, llm.PartialResponse] and can
// be passed directly to structured.New, optionally wrapped with provider
// middleware. It requests include_usage so the finish record carries the
// final token counts; see Mapper for how the trailing usage chunk is folded
// into it.
//
//	drv, err := openai.NewFromAPIKey(os.Getenv("OPENAI_API_KEY"), "", openai.Options{Model: "gpt-4o-mini"})
//	ex, err := structured.New[Person](drv, model)
package openai
