// Package reduce is a small transducer engine over pipeline iterators.
//
// A Reducer folds values into an accumulator in three phases: Init builds the
// empty accumulator and resets any per-run state, Step folds one value and may
// signal early termination, Complete finishes the accumulator once the source
// is exhausted or a step asked to stop.
//
// A Transducer wraps a Reducer to build another one. Map, Filter and Tap are
// stateless. Scan, DistinctBy, Chunk, GroupBy, Take and TakeWhile keep state
// that Init resets, so a composed reducer can be reused for a fresh run.
//
// A Transformation binds a composed reducer to a source and runs it:
//
//	xf := reduce.New(reduce.Collect[int](),
//	    reduce.Filter[[]int](func(n int) bool { return n%2 == 0 }),
//	    reduce.Take[[]int, int](3),
//	)
//	evens, err := xf.ExecuteOn(ctx, pipeline.FromSlice(nums))
//
// Transducers that change the element type are chained with Compose and
// applied with Apply before building the Transformation.
package reduce
