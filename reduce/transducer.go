package reduce

// Transducer turns a reducer of U into a reducer of T. It may call the inner
// Step zero, one or many times per value and may request early termination.
type Transducer[A, T, U any] func(Reducer[A, U]) Reducer[A, T]

// Compose chains two transducers. Values flow through outer first.
func Compose[A, T, U, V any](outer Transducer[A, T, U], inner Transducer[A, U, V]) Transducer[A, T, V] {
	return func(r Reducer[A, V]) Reducer[A, T] {
		return outer(inner(r))
	}
}

// Chain composes same-typed transducers right to left, so the first listed
// sees values first. An empty chain is the identity.
func Chain[A, T any](xfs ...Transducer[A, T, T]) Transducer[A, T, T] {
	return func(r Reducer[A, T]) Reducer[A, T] {
		for i := len(xfs) - 1; i >= 0; i-- {
			r = xfs[i](r)
		}
		return r
	}
}

// Apply binds a transducer to a terminal reducer.
func Apply[A, T, U any](xf Transducer[A, T, U], r Reducer[A, U]) Reducer[A, T] {
	return xf(r)
}
