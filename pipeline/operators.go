package pipeline

import "context"

// Map transforms each value using fn.
func Map[I, O any](src Iterator[I], fn func(context.Context, I) (O, error)) Iterator[O] {
	return &mapIter[I, O]{source: src, fn: fn}
}

// FlatMap transforms each value into an iterator and flattens the results.
func FlatMap[I, O any](src Iterator[I], fn func(context.Context, I) (Iterator[O], error)) Iterator[O] {
	return &flatMapIter[I, O]{source: src, fn: fn}
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](src Iterator[T], fn func(T) bool) Iterator[T] {
	return &filterIter[T]{source: src, fn: fn}
}

// Tap calls fn as a side-effect for each value, then passes the value through unchanged.
func Tap[T any](src Iterator[T], fn func(context.Context, T) error) Iterator[T] {
	return &tapIter[T]{source: src, fn: fn}
}

// Concat joins iterators sequentially.
func Concat[T any](iters ...Iterator[T]) Iterator[T] {
	return &concatIter[T]{iters: iters}
}

// Limit yields at most n values and never pulls the source beyond the nth.
func Limit[T any](src Iterator[T], n int) Iterator[T] {
	return &limitIter[T]{source: src, remaining: n}
}

// Counter wraps an iterator and counts successful pulls.
type Counter[T any] struct {
	source Iterator[T]
	pulls  int
}

// Count wraps src in a Counter.
func Count[T any](src Iterator[T]) *Counter[T] {
	return &Counter[T]{source: src}
}

// Next pulls from the wrapped iterator.
func (c *Counter[T]) Next(ctx context.Context) (T, bool, error) {
	val, ok, err := c.source.Next(ctx)
	if ok && err == nil {
		c.pulls++
	}
	return val, ok, err
}

// Close closes the wrapped iterator.
func (c *Counter[T]) Close() error { return c.source.Close() }

// Pulls reports how many values have been yielded so far.
func (c *Counter[T]) Pulls() int { return c.pulls }

// --- Iterator implementations ---

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := it.fn(ctx, val)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

type flatMapIter[I, O any] struct {
	source  Iterator[I]
	fn      func(context.Context, I) (Iterator[O], error)
	current Iterator[O]
}

func (it *flatMapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for {
		if it.current != nil {
			val, ok, err := it.current.Next(ctx)
			if err != nil {
				return zero, false, err
			}
			if ok {
				return val, true, nil
			}
			_ = it.current.Close()
			it.current = nil
		}
		in, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		inner, err := it.fn(ctx, in)
		if err != nil {
			return zero, false, err
		}
		it.current = inner
	}
}

func (it *flatMapIter[I, O]) Close() error {
	if it.current != nil {
		_ = it.current.Close()
	}
	return it.source.Close()
}

type filterIter[T any] struct {
	source Iterator[T]
	fn     func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		if it.fn(val) {
			return val, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }

type tapIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) error
}

func (it *tapIter[T]) Next(ctx context.Context) (T, bool, error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, ok, err
	}
	if err := it.fn(ctx, val); err != nil {
		var zero T
		return zero, false, err
	}
	return val, true, nil
}

func (it *tapIter[T]) Close() error { return it.source.Close() }

type concatIter[T any] struct {
	iters []Iterator[T]
	index int
}

func (it *concatIter[T]) Next(ctx context.Context) (T, bool, error) {
	for it.index < len(it.iters) {
		val, ok, err := it.iters[it.index].Next(ctx)
		if err != nil {
			return val, false, err
		}
		if ok {
			return val, true, nil
		}
		it.index++
	}
	var zero T
	return zero, false, nil
}

func (it *concatIter[T]) Close() error {
	var firstErr error
	for _, inner := range it.iters {
		if err := inner.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type limitIter[T any] struct {
	source    Iterator[T]
	remaining int
}

func (it *limitIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.remaining <= 0 {
		var zero T
		return zero, false, nil
	}
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, false, err
	}
	it.remaining--
	return val, true, nil
}

func (it *limitIter[T]) Close() error { return it.source.Close() }
