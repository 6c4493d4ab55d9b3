// Package validation collects constraint violations into structured
// VALIDATION errors.
//
// Struct tag validation uses go-playground/validator and is how typed
// extraction results and configuration are checked:
//
//	type Person struct {
//	    Name string `json:"name" validate:"required"`
//	    Age  int    `json:"age" validate:"gte=0,lte=150"`
//	}
//	err := validation.Struct[Person]().Validate(p)
//
// Programmatic validation accumulates field errors from any other source,
// such as JSON Schema evaluation:
//
//	v := validation.New()
//	v.AddError("/age", "must be >= 0")
//	err := v.Error()
package validation
