package transform

import "github.com/kbukum/structured/extract"

// Chain applies transformers in order, stopping at the first failure.
func Chain[T any](ts ...extract.Transformer[T]) extract.Transformer[T] {
	return extract.TransformerFunc[T](func(obj T) (T, error) {
		var err error
		for _, t := range ts {
			if obj, err = t.Transform(obj); err != nil {
				return obj, err
			}
		}
		return obj, nil
	})
}

// Func wraps a plain function as a transformer.
func Func[T any](fn func(T) (T, error)) extract.Transformer[T] {
	return extract.TransformerFunc[T](fn)
}

// Self returns the transformer that calls T's own Transform method.
func Self[T any]() extract.Transformer[T] { return extract.SelfTransformer[T]{} }
