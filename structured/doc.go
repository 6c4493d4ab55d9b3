// Package structured extracts validated, typed objects from streamed LLM
// completions.
//
// An Extractor opens a stream per attempt, folds it through the extract
// pipeline and checks the terminal object. When an attempt ends without a
// valid object its RetryPolicy decides whether to try again, feeding the
// model's output and the errors back into the next request.
//
//	x, err := structured.New[User](driver, schema.Object("User", userSchema))
//	user, err := x.Get(ctx, req)
//
// Stream yields partial aggregates as objects appear:
//
//	it := x.Stream(ctx, req)
//	defer it.Close()
//	for agg, err := range pipeline.All(ctx, it) { ... }
package structured
