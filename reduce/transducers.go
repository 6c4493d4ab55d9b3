package reduce

// Map applies fn to every value.
func Map[A, T, U any](fn func(T) U) Transducer[A, T, U] {
	return func(r Reducer[A, U]) Reducer[A, T] {
		return Wrap(r, func(acc A, v T) (A, bool) {
			return r.Step(acc, fn(v))
		})
	}
}

// Filter forwards only values matching pred.
func Filter[A, T any](pred func(T) bool) Transducer[A, T, T] {
	return func(r Reducer[A, T]) Reducer[A, T] {
		return Wrap(r, func(acc A, v T) (A, bool) {
			if !pred(v) {
				return acc, false
			}
			return r.Step(acc, v)
		})
	}
}

// Tap calls fn for every value before forwarding it unchanged.
func Tap[A, T any](fn func(T)) Transducer[A, T, T] {
	return func(r Reducer[A, T]) Reducer[A, T] {
		return Wrap(r, func(acc A, v T) (A, bool) {
			fn(v)
			return r.Step(acc, v)
		})
	}
}

// Scan forwards the running state produced by fn instead of the raw value.
func Scan[A, T, S any](seed S, fn func(S, T) S) Transducer[A, T, S] {
	return func(r Reducer[A, S]) Reducer[A, T] {
		return &scan[A, T, S]{inner: r, seed: seed, fn: fn}
	}
}

type scan[A, T, S any] struct {
	inner Reducer[A, S]
	seed  S
	state S
	fn    func(S, T) S
}

func (s *scan[A, T, S]) Init() A {
	s.state = s.seed
	return s.inner.Init()
}

func (s *scan[A, T, S]) Step(acc A, v T) (A, bool) {
	s.state = s.fn(s.state, v)
	return s.inner.Step(acc, s.state)
}

func (s *scan[A, T, S]) Complete(acc A) A { return s.inner.Complete(acc) }

// DistinctBy drops values whose key was already seen during the run.
func DistinctBy[A, T any, K comparable](key func(T) K) Transducer[A, T, T] {
	return func(r Reducer[A, T]) Reducer[A, T] {
		return &distinct[A, T, K]{inner: r, key: key}
	}
}

func (s *scan[A, T, S]) Halted() bool { return Halted(s.inner) }

type distinct[A, T any, K comparable] struct {
	inner Reducer[A, T]
	key   func(T) K
	seen  map[K]struct{}
}

func (d *distinct[A, T, K]) Init() A {
	d.seen = make(map[K]struct{})
	return d.inner.Init()
}

func (d *distinct[A, T, K]) Step(acc A, v T) (A, bool) {
	k := d.key(v)
	if _, ok := d.seen[k]; ok {
		return acc, false
	}
	d.seen[k] = struct{}{}
	return d.inner.Step(acc, v)
}

func (d *distinct[A, T, K]) Complete(acc A) A { return d.inner.Complete(acc) }

// Chunk groups values into slices of size n. A partial trailing chunk is
// flushed at Complete unless the inner reducer already asked to stop.
func Chunk[A, T any](n int) Transducer[A, T, []T] {
	if n < 1 {
		n = 1
	}
	return func(r Reducer[A, []T]) Reducer[A, T] {
		return &chunk[A, T]{inner: r, size: n}
	}
}

func (d *distinct[A, T, K]) Halted() bool { return Halted(d.inner) }

type chunk[A, T any] struct {
	inner  Reducer[A, []T]
	size   int
	buf    []T
	halted bool
}

func (c *chunk[A, T]) Init() A {
	c.buf = nil
	c.halted = false
	return c.inner.Init()
}

func (c *chunk[A, T]) Step(acc A, v T) (A, bool) {
	c.buf = append(c.buf, v)
	if len(c.buf) < c.size {
		return acc, false
	}
	out := c.buf
	c.buf = nil
	acc, c.halted = c.inner.Step(acc, out)
	return acc, c.halted
}

func (c *chunk[A, T]) Complete(acc A) A {
	if len(c.buf) > 0 && !c.halted {
		acc, _ = c.inner.Step(acc, c.buf)
	}
	c.buf = nil
	return c.inner.Complete(acc)
}

func (c *chunk[A, T]) Halted() bool { return Halted(c.inner) }

// Group is a run of consecutive values sharing a key.
type Group[K comparable, T any] struct {
	Key    K
	Values []T
}

// GroupBy groups consecutive values with equal keys. A group is forwarded
// when the key changes and the last one at Complete.
func GroupBy[A, T any, K comparable](key func(T) K) Transducer[A, T, Group[K, T]] {
	return func(r Reducer[A, Group[K, T]]) Reducer[A, T] {
		return &groupBy[A, T, K]{inner: r, key: key}
	}
}

type groupBy[A, T any, K comparable] struct {
	inner   Reducer[A, Group[K, T]]
	key     func(T) K
	current *Group[K, T]
	halted  bool
}

func (g *groupBy[A, T, K]) Init() A {
	g.current = nil
	g.halted = false
	return g.inner.Init()
}

func (g *groupBy[A, T, K]) Step(acc A, v T) (A, bool) {
	k := g.key(v)
	if g.current != nil && g.current.Key == k {
		g.current.Values = append(g.current.Values, v)
		return acc, false
	}
	if g.current != nil {
		done := *g.current
		g.current = &Group[K, T]{Key: k, Values: []T{v}}
		acc, g.halted = g.inner.Step(acc, done)
		return acc, g.halted
	}
	g.current = &Group[K, T]{Key: k, Values: []T{v}}
	return acc, false
}

func (g *groupBy[A, T, K]) Complete(acc A) A {
	if g.current != nil && !g.halted {
		acc, _ = g.inner.Step(acc, *g.current)
	}
	g.current = nil
	return g.inner.Complete(acc)
}

func (g *groupBy[A, T, K]) Halted() bool { return Halted(g.inner) }

// Take forwards the first n values and signals termination on the nth, so
// the source is never pulled past it. Take(0) halts before the first pull.
func Take[A, T any](n int) Transducer[A, T, T] {
	return func(r Reducer[A, T]) Reducer[A, T] {
		return &take[A, T]{inner: r, limit: n}
	}
}

type take[A, T any] struct {
	inner Reducer[A, T]
	limit int
	seen  int
}

func (t *take[A, T]) Init() A {
	t.seen = 0
	return t.inner.Init()
}

func (t *take[A, T]) Step(acc A, v T) (A, bool) {
	if t.limit <= 0 {
		return acc, true
	}
	t.seen++
	acc, reduced := t.inner.Step(acc, v)
	return acc, reduced || t.seen >= t.limit
}

func (t *take[A, T]) Complete(acc A) A { return t.inner.Complete(acc) }

func (t *take[A, T]) Halted() bool { return t.limit <= 0 || Halted(t.inner) }

// TakeWhile forwards values while pred holds and stops at the first miss.
func TakeWhile[A, T any](pred func(T) bool) Transducer[A, T, T] {
	return func(r Reducer[A, T]) Reducer[A, T] {
		return Wrap(r, func(acc A, v T) (A, bool) {
			if !pred(v) {
				return acc, true
			}
			return r.Step(acc, v)
		})
	}
}
