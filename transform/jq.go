package transform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/kbukum/structured/errors"
)

// JQ rewrites objects with a jq program. The object is encoded to JSON,
// the program's first output is decoded back into T. A program that yields
// nothing leaves the object unchanged.
type JQ[T any] struct {
	expr string
	code *gojq.Code
}

// NewJQ compiles expr. Variables are not supported.
func NewJQ[T any](expr string) (*JQ[T], error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, errors.InvalidInput("jq", fmt.Sprintf("invalid jq expression %q: %v", expr, err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, errors.InvalidInput("jq", fmt.Sprintf("cannot compile jq expression %q: %v", expr, err))
	}
	return &JQ[T]{expr: expr, code: code}, nil
}

// MustJQ is NewJQ that panics on an invalid expression.
func MustJQ[T any](expr string) *JQ[T] {
	t, err := NewJQ[T](expr)
	if err != nil {
		panic(err)
	}
	return t
}

// Expr returns the source expression.
func (t *JQ[T]) Expr() string { return t.expr }

// Transform implements extract.Transformer.
func (t *JQ[T]) Transform(obj T) (T, error) {
	input, err := toJSONValue(obj)
	if err != nil {
		return obj, errors.Transform(err)
	}
	iter := t.code.RunWithContext(context.Background(), input)
	v, ok := iter.Next()
	if !ok {
		return obj, nil
	}
	if err, isErr := v.(error); isErr {
		return obj, errors.Transform(fmt.Errorf("jq %q: %w", t.expr, err))
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return obj, errors.Transform(err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return obj, errors.Transform(fmt.Errorf("jq %q output does not fit the target type: %w", t.expr, err))
	}
	return out, nil
}

func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
