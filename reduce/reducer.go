package reduce

// Reducer folds values of type T into an accumulator of type A.
type Reducer[A, T any] interface {
	// Init returns the initial accumulator and resets per-run state.
	Init() A
	// Step folds v into acc. A true second result asks the caller to stop
	// pulling values; no further Step calls follow.
	Step(acc A, v T) (A, bool)
	// Complete finalizes the accumulator. Called once per successful run.
	Complete(acc A) A
}

// Halter is implemented by reducers that can finish before seeing any
// value. Transducers in this package forward it to their inner reducer.
type Halter interface {
	Halted() bool
}

// Halted reports whether r asks to stop before the next pull.
func Halted(r any) bool {
	h, ok := r.(Halter)
	return ok && h.Halted()
}

// Funcs adapts plain functions to a Reducer. Nil OnInit yields the zero
// accumulator and nil OnComplete is the identity.
type Funcs[A, T any] struct {
	OnInit     func() A
	OnStep     func(acc A, v T) (A, bool)
	OnComplete func(acc A) A
}

// Init implements Reducer.
func (f Funcs[A, T]) Init() A {
	if f.OnInit == nil {
		var zero A
		return zero
	}
	return f.OnInit()
}

// Step implements Reducer.
func (f Funcs[A, T]) Step(acc A, v T) (A, bool) { return f.OnStep(acc, v) }

// Complete implements Reducer.
func (f Funcs[A, T]) Complete(acc A) A {
	if f.OnComplete == nil {
		return acc
	}
	return f.OnComplete(acc)
}

// Wrap derives a reducer from inner, replacing only its Step. Init and
// Complete delegate to inner.
func Wrap[A, T, U any](inner Reducer[A, U], step func(acc A, v T) (A, bool)) Reducer[A, T] {
	return &wrapped[A, T, U]{inner: inner, step: step}
}

type wrapped[A, T, U any] struct {
	inner Reducer[A, U]
	step  func(acc A, v T) (A, bool)
}

func (w *wrapped[A, T, U]) Init() A                   { return w.inner.Init() }
func (w *wrapped[A, T, U]) Step(acc A, v T) (A, bool) { return w.step(acc, v) }
func (w *wrapped[A, T, U]) Complete(acc A) A          { return w.inner.Complete(acc) }
func (w *wrapped[A, T, U]) Halted() bool              { return Halted(w.inner) }
