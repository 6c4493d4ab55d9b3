package provider

import (
	"context"
	"sync"

	"github.com/kbukum/structured/pipeline"
)

// watched counts items pulled from a stream and reports once when the
// consumer closes it. Middlewares use it to observe stream lifetimes.
type watched[T any] struct {
	source  pipeline.Iterator[T]
	items   int
	err     error
	once    sync.Once
	onClose func(items int, err error)
}

func watch[T any](source pipeline.Iterator[T], onClose func(items int, err error)) pipeline.Iterator[T] {
	return &watched[T]{source: source, onClose: onClose}
}

func (w *watched[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := w.source.Next(ctx)
	if err != nil {
		w.err = err
	} else if ok {
		w.items++
	}
	return v, ok, err
}

func (w *watched[T]) Close() error {
	err := w.source.Close()
	w.once.Do(func() { w.onClose(w.items, w.err) })
	return err
}
