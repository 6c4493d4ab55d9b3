package reduce

import (
	"context"

	"github.com/kbukum/structured/pipeline"
)

// Transformation is a composed reducer ready to run over a source.
type Transformation[A, T any] struct {
	reducer Reducer[A, T]
}

// Snapshot is the accumulator observed after a step. Final is set on the
// single snapshot emitted after Complete.
type Snapshot[A any] struct {
	Value A
	Final bool
}

// New composes xfs right to left around r. The first transducer sees source
// values first.
func New[A, T any](r Reducer[A, T], xfs ...Transducer[A, T, T]) *Transformation[A, T] {
	return &Transformation[A, T]{reducer: Chain(xfs...)(r)}
}

// Reducer returns the composed reducer.
func (x *Transformation[A, T]) Reducer() Reducer[A, T] { return x.reducer }

// ExecuteOn runs the transformation to completion. Source values are pulled
// until the source is exhausted or a step signals termination; no value is
// pulled after that. On a source or context error Complete is skipped and the
// error returned. The source is always closed.
func (x *Transformation[A, T]) ExecuteOn(ctx context.Context, src pipeline.Iterator[T]) (A, error) {
	defer src.Close()
	acc := x.reducer.Init()
	for !Halted(x.reducer) {
		if err := ctx.Err(); err != nil {
			return acc, err
		}
		v, ok, err := src.Next(ctx)
		if err != nil {
			return acc, err
		}
		if !ok {
			break
		}
		var reduced bool
		if acc, reduced = x.reducer.Step(acc, v); reduced {
			break
		}
	}
	return x.reducer.Complete(acc), nil
}

// Iterate runs the transformation lazily, yielding the accumulator after
// every step and a Final snapshot after Complete. Closing the returned
// iterator early closes the source without calling Complete.
func (x *Transformation[A, T]) Iterate(ctx context.Context, src pipeline.Iterator[T]) pipeline.Iterator[Snapshot[A]] {
	return &stepIter[A, T]{reducer: x.reducer, source: src}
}

type stepIter[A, T any] struct {
	reducer Reducer[A, T]
	source  pipeline.Iterator[T]
	acc     A
	started bool
	halted  bool
	done    bool
}

func (it *stepIter[A, T]) Next(ctx context.Context) (Snapshot[A], bool, error) {
	if it.done {
		return Snapshot[A]{}, false, nil
	}
	if !it.started {
		it.acc = it.reducer.Init()
		it.started = true
		it.halted = Halted(it.reducer)
	}
	if it.halted {
		return it.finish(), true, nil
	}
	if err := ctx.Err(); err != nil {
		it.done = true
		return Snapshot[A]{}, false, err
	}
	v, ok, err := it.source.Next(ctx)
	if err != nil {
		it.done = true
		return Snapshot[A]{}, false, err
	}
	if !ok {
		return it.finish(), true, nil
	}
	it.acc, it.halted = it.reducer.Step(it.acc, v)
	return Snapshot[A]{Value: it.acc}, true, nil
}

func (it *stepIter[A, T]) finish() Snapshot[A] {
	it.done = true
	it.acc = it.reducer.Complete(it.acc)
	return Snapshot[A]{Value: it.acc, Final: true}
}

func (it *stepIter[A, T]) Close() error {
	it.done = true
	return it.source.Close()
}
