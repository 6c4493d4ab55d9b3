package extract

import (
	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/schema"
)

// Finalize decides whether a completed aggregate holds an acceptable
// object. It fails when the last frame failed, when no object was emitted,
// when the object's JSON violates the model's full schema, or when a
// validator rejects it.
func Finalize[T any](agg Aggregate[T], model *schema.ResponseModel, validators ...Validator[T]) (T, error) {
	obj, err := agg.Get()
	if err != nil {
		return obj, err
	}
	if model != nil {
		if err := model.Validate(agg.Data); err != nil {
			return obj, err
		}
	}
	for _, v := range validators {
		if err := v.Validate(obj); err != nil {
			return obj, asStageError(err, errors.ErrCodeValidation, "")
		}
	}
	return obj, nil
}
