// Package schema describes the structured response a model is asked to
// produce and validates candidate values against it.
//
// A ResponseModel pairs a JSON Schema (github.com/google/jsonschema-go) with
// the metadata the pipeline needs: the type name, the construction Kind, and
// the tool name expected in tool modes. Scalar and Sequence models wrap their
// value under a single property ("value" or "list") because tool calls and
// JSON modes always return objects; Unwrap strips the wrapper again.
//
// Two validators are derived lazily and cached on the model:
//
//   - ValidatePartial checks an incomplete object. Required, minItems,
//     minProperties and dependentRequired are relaxed so a growing object is
//     not rejected for members that have not arrived yet.
//   - Validate checks the final object against the full schema, compiled with
//     github.com/santhosh-tekuri/jsonschema/v6.
package schema
