// Package extract turns a stream of partial model responses into validated,
// deduplicated objects.
//
// The pipeline is a chain of reduce transducers over llm.PartialResponse:
//
//	ExtractDelta → DeserializeValidateDedupe → EventTap → AggregateReducer
//
// ExtractDelta picks the mode-specific text out of each record and grows a
// jsonbuf.Buffer. DeserializeValidateDedupe parses the best-effort completion
// of that buffer, decodes it into T, validates it partially, transforms it
// and suppresses repeats by fingerprint. EventTap publishes events without
// touching the frames, and AggregateReducer folds everything into an
// Aggregate.
//
// Stage failures never abort the run. They travel inside frames as failed
// Results tagged EmissionError; the caller decides at the end of the
// attempt whether the final aggregate is acceptable (see Finalize).
//
// Every stage keeps its state on the reducer and resets it in Init, so one
// Transformation can be reused for successive attempts but never shared by
// concurrent runs.
package extract
