package reduce

// Found holds an optional result.
type Found[T any] struct {
	Value T
	OK    bool
}

// Collect appends every value to a slice.
func Collect[T any]() Reducer[[]T, T] {
	return Funcs[[]T, T]{
		OnInit: func() []T { return nil },
		OnStep: func(acc []T, v T) ([]T, bool) { return append(acc, v), false },
	}
}

// First keeps the first value matching pred and stops immediately.
// A nil pred matches anything.
func First[T any](pred func(T) bool) Reducer[Found[T], T] {
	return Funcs[Found[T], T]{
		OnStep: func(acc Found[T], v T) (Found[T], bool) {
			if pred != nil && !pred(v) {
				return acc, false
			}
			return Found[T]{Value: v, OK: true}, true
		},
	}
}

// Last keeps the most recent value.
func Last[T any]() Reducer[Found[T], T] {
	return Funcs[Found[T], T]{
		OnStep: func(_ Found[T], v T) (Found[T], bool) {
			return Found[T]{Value: v, OK: true}, false
		},
	}
}

// Count counts values.
func Count[T any]() Reducer[int, T] {
	return Funcs[int, T]{
		OnStep: func(acc int, _ T) (int, bool) { return acc + 1, false },
	}
}

// Fold combines values with fn starting from seed.
func Fold[A, T any](seed A, fn func(A, T) A) Reducer[A, T] {
	return Funcs[A, T]{
		OnInit: func() A { return seed },
		OnStep: func(acc A, v T) (A, bool) { return fn(acc, v), false },
	}
}
