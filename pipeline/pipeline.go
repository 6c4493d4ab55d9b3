package pipeline

import (
	"context"
	"iter"
)

// Iterator provides pull-based sequential access to a stream of values.
// Structurally compatible with provider.Iterator[T].
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// --- Sources ---

// FromSlice iterates over items in order.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// FromFunc builds an iterator from a generator. The generator returns
// (zero, false, nil) when exhausted. closer may be nil.
func FromFunc[T any](next func(ctx context.Context) (T, bool, error), closer func() error) Iterator[T] {
	return &funcIter[T]{next: next, closer: closer}
}

// FromSeq adapts a range-over-func sequence. A non-nil error element ends
// iteration with that error.
func FromSeq[T any](seq iter.Seq2[T, error]) Iterator[T] {
	next, stop := iter.Pull2(seq)
	return &seqIter[T]{next: next, stop: stop}
}

// Empty returns an exhausted iterator.
func Empty[T any]() Iterator[T] {
	return &sliceIter[T]{}
}

// Fail returns an iterator whose first Next fails with err.
func Fail[T any](err error) Iterator[T] {
	return FromFunc(func(context.Context) (T, bool, error) {
		var zero T
		return zero, false, err
	}, nil)
}

// --- Terminals ---

// Drain pulls all values and sends each to sink. The iterator is closed on return.
func Drain[T any](ctx context.Context, it Iterator[T], sink func(context.Context, T) error) error {
	defer it.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := sink(ctx, val); err != nil {
			return err
		}
	}
}

// Collect pulls all values into a slice. Values pulled before an error are returned with it.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	var out []T
	err := Drain(ctx, it, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// ForEach calls fn for every value.
func ForEach[T any](ctx context.Context, it Iterator[T], fn func(T)) error {
	return Drain(ctx, it, func(_ context.Context, v T) error {
		fn(v)
		return nil
	})
}

// All bridges an Iterator to a range-over-func sequence. An error is yielded
// once as the final element. Breaking out of the loop closes the iterator.
func All[T any](ctx context.Context, it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer it.Close()
		for {
			val, ok, err := it.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok || !yield(val, nil) {
				return
			}
		}
	}
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type funcIter[T any] struct {
	next   func(ctx context.Context) (T, bool, error)
	closer func() error
	done   bool
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	val, ok, err := it.next(ctx)
	if err != nil || !ok {
		it.done = true
		return zero, false, err
	}
	return val, true, nil
}

func (it *funcIter[T]) Close() error {
	it.done = true
	if it.closer != nil {
		c := it.closer
		it.closer = nil
		return c()
	}
	return nil
}

type seqIter[T any] struct {
	next func() (T, error, bool)
	stop func()
}

func (it *seqIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	val, err, ok := it.next()
	if !ok {
		return zero, false, nil
	}
	if err != nil {
		it.stop()
		return zero, false, err
	}
	return val, true, nil
}

func (it *seqIter[T]) Close() error {
	it.stop()
	return nil
}
