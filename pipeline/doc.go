// Package pipeline provides lazy, pull-based iterators and the operators that
// compose them.
//
// Nothing happens until a value is pulled with Next. Each operator pulls from its
// source on demand, so a consumer that stops pulling stops the whole chain and no
// further upstream work is done. Close propagates to the source.
//
// # Sources
//
//   - FromSlice: iterate a slice
//   - FromFunc: iterate a generator function
//   - FromSeq: adapt a range-over-func iter.Seq2[T, error]
//   - Empty, Fail: degenerate sources
//
// # Operators
//
//   - Map, Filter, Tap: per-value transforms and side effects
//   - FlatMap, Concat: flatten and join
//   - Limit: stop after n values
//   - Count: wrap a source and record how many values were pulled
//
// # Terminals
//
//   - Collect, Drain, ForEach
//   - All: bridge an Iterator back to a range-over-func sequence
//
// # Usage
//
//	src := pipeline.FromSlice([]string{`{"a"`, `:1}`})
//	upper := pipeline.Map(src, func(_ context.Context, s string) (string, error) {
//	    return strings.ToUpper(s), nil
//	})
//	parts, err := pipeline.Collect(ctx, upper)
package pipeline
