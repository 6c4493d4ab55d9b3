package extract

import (
	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/reduce"
	"github.com/kbukum/structured/schema"
)

// DeserializeValidateDedupe decodes each frame's buffer into T.
//
// Frames with nothing to decode yet pass through untouched. Otherwise the
// buffer is parsed, deserialized, partially validated and transformed; the
// first failure tags the frame EmissionError. A successful object is tagged
// EmissionObjectReady when its fingerprint differs from the last emitted
// one, EmissionNone otherwise. Failures never update the fingerprint.
func DeserializeValidateDedupe[A, T any](model *schema.ResponseModel, caps Capabilities[T]) reduce.Transducer[A, Frame[T], Frame[T]] {
	caps = caps.WithDefaults(model)
	return func(inner reduce.Reducer[A, Frame[T]]) reduce.Reducer[A, Frame[T]] {
		return &dedupe[A, T]{inner: inner, model: model, caps: caps}
	}
}

type dedupe[A, T any] struct {
	inner reduce.Reducer[A, Frame[T]]
	model *schema.ResponseModel
	caps  Capabilities[T]

	last    uint64
	hasLast bool
}

func (d *dedupe[A, T]) Init() A {
	d.last, d.hasLast = 0, false
	return d.inner.Init()
}

func (d *dedupe[A, T]) Step(acc A, frame Frame[T]) (A, bool) {
	data, ok, err := parseBuffer(frame.Buffer, frame.IsFinal())
	if !ok {
		return d.inner.Step(acc, frame)
	}
	if err != nil {
		return d.inner.Step(acc, failed(frame, err))
	}
	frame.Data = data

	obj, err := d.decode(data)
	if err != nil {
		return d.inner.Step(acc, failed(frame, err))
	}
	fp, err := d.caps.Fingerprinter.Fingerprint(obj)
	if err != nil {
		if !errors.IsAppError(err) {
			err = errors.Fingerprint(err)
		}
		return d.inner.Step(acc, failed(frame, err))
	}

	frame.Result = Ok(obj)
	if d.hasLast && fp == d.last {
		frame.Emission = EmissionNone
	} else {
		frame.Emission = EmissionObjectReady
		d.last, d.hasLast = fp, true
	}
	return d.inner.Step(acc, frame)
}

func (d *dedupe[A, T]) Complete(acc A) A { return d.inner.Complete(acc) }

func (d *dedupe[A, T]) decode(data any) (T, error) {
	obj, err := d.caps.Deserializer.Deserialize(data, d.model)
	if err != nil {
		return obj, asStageError(err, errors.ErrCodeDeserialize, d.typeName())
	}
	if d.caps.PartialValidator != nil {
		if err := d.caps.PartialValidator.ValidatePartial(data); err != nil {
			return obj, asStageError(err, errors.ErrCodeValidation, d.typeName())
		}
	}
	obj, err = d.caps.Transformer.Transform(obj)
	if err != nil {
		return obj, asStageError(err, errors.ErrCodeTransform, d.typeName())
	}
	return obj, nil
}

func (d *dedupe[A, T]) typeName() string {
	if d.model == nil {
		return "value"
	}
	return d.model.Name
}

func failed[T any](frame Frame[T], err error) Frame[T] {
	frame.Result = Fail[T](err)
	frame.Emission = EmissionError
	return frame
}

// asStageError keeps AppErrors raised by a capability and wraps anything
// else with the stage's code.
func asStageError(err error, code errors.ErrorCode, typeName string) error {
	if errors.IsAppError(err) {
		return err
	}
	switch code {
	case errors.ErrCodeDeserialize:
		return errors.Deserialize(typeName, err)
	case errors.ErrCodeValidation:
		return errors.Validation(err.Error()).WithCause(err)
	default:
		return errors.Transform(err)
	}
}
