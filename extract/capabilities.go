package extract

import (
	"bytes"
	"encoding/json"

	"github.com/cespare/xxhash/v2"
	"github.com/go-viper/mapstructure/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/schema"
)

// Deserializer builds a T from parsed JSON.
type Deserializer[T any] interface {
	Deserialize(data any, model *schema.ResponseModel) (T, error)
}

// PartialValidator checks parsed JSON that may still be growing.
type PartialValidator interface {
	ValidatePartial(data any) error
}

// Validator checks a final typed object.
type Validator[T any] interface {
	Validate(obj T) error
}

// Transformer normalizes a decoded object.
type Transformer[T any] interface {
	Transform(obj T) (T, error)
}

// Fingerprinter computes a structural equality key for an object.
type Fingerprinter[T any] interface {
	Fingerprint(obj T) (uint64, error)
}

// DeserializerFunc adapts a function to a Deserializer.
type DeserializerFunc[T any] func(data any, model *schema.ResponseModel) (T, error)

func (f DeserializerFunc[T]) Deserialize(data any, model *schema.ResponseModel) (T, error) {
	return f(data, model)
}

// PartialValidatorFunc adapts a function to a PartialValidator.
type PartialValidatorFunc func(data any) error

func (f PartialValidatorFunc) ValidatePartial(data any) error { return f(data) }

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc[T any] func(obj T) error

func (f ValidatorFunc[T]) Validate(obj T) error { return f(obj) }

// TransformerFunc adapts a function to a Transformer.
type TransformerFunc[T any] func(obj T) (T, error)

func (f TransformerFunc[T]) Transform(obj T) (T, error) { return f(obj) }

// FingerprinterFunc adapts a function to a Fingerprinter.
type FingerprinterFunc[T any] func(obj T) (uint64, error)

func (f FingerprinterFunc[T]) Fingerprint(obj T) (uint64, error) { return f(obj) }

// Capabilities bundles the pluggable steps of the pipeline. Zero fields are
// filled by WithDefaults.
type Capabilities[T any] struct {
	Deserializer     Deserializer[T]
	PartialValidator PartialValidator
	// Validators run on the final object after the schema check.
	Validators    []Validator[T]
	Transformer   Transformer[T]
	Fingerprinter Fingerprinter[T]
}

// WithDefaults returns c with unset capabilities replaced by the defaults:
// MapDeserializer, the model's partial schema check, SelfTransformer and
// HashFingerprinter.
func (c Capabilities[T]) WithDefaults(model *schema.ResponseModel) Capabilities[T] {
	if c.Deserializer == nil {
		c.Deserializer = MapDeserializer[T]{}
	}
	if c.PartialValidator == nil && model != nil {
		c.PartialValidator = model
	}
	if c.Transformer == nil {
		c.Transformer = SelfTransformer[T]{}
	}
	if c.Fingerprinter == nil {
		c.Fingerprinter = HashFingerprinter[T]{}
	}
	return c
}

// MapDeserializer decodes parsed JSON with mapstructure, honouring json tags
// and converting between compatible scalar types ("3" into an int field).
// Scalar and sequence models are unwrapped first.
type MapDeserializer[T any] struct{}

// Deserialize implements Deserializer.
func (MapDeserializer[T]) Deserialize(data any, model *schema.ResponseModel) (T, error) {
	var out T
	name := "value"
	if model != nil {
		data = model.Unwrap(data)
		name = model.Name
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return out, errors.Internal(err)
	}
	if err := dec.Decode(data); err != nil {
		return out, errors.Deserialize(name, err)
	}
	return out, nil
}

// SelfTransformer calls Transform on objects that define
// Transform() (T, error), on the value or its pointer. Other objects pass
// through unchanged.
type SelfTransformer[T any] struct{}

// Transform implements Transformer.
func (SelfTransformer[T]) Transform(obj T) (T, error) {
	type self interface{ Transform() (T, error) }
	if s, ok := any(obj).(self); ok {
		return s.Transform()
	}
	if s, ok := any(&obj).(self); ok {
		return s.Transform()
	}
	return obj, nil
}

// HashFingerprinter hashes the msgpack encoding of the object's JSON form
// with xxhash. Map keys are sorted, so equal structures hash equally
// regardless of field order in the source text.
type HashFingerprinter[T any] struct{}

// Fingerprint implements Fingerprinter.
func (HashFingerprinter[T]) Fingerprint(obj T) (uint64, error) {
	generic, err := toGeneric(obj)
	if err != nil {
		return 0, errors.Fingerprint(err)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(generic); err != nil {
		return 0, errors.Fingerprint(err)
	}
	return xxhash.Sum64(buf.Bytes()), nil
}

func toGeneric(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, float64, map[string]any, []any:
		return v, nil
	}
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
