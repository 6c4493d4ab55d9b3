// Package llm defines the provider-neutral vocabulary exchanged between
// model drivers and the extraction pipeline.
//
// Drivers translate vendor stream events into [PartialResponse] values. The
// pipeline never sees vendor wire formats; it consumes content and tool
// argument deltas, a finish reason on the closing record, and a [Usage]
// snapshot that is always the latest cumulative count for the response.
//
// [Request] carries the conversation the driver should send. Retries extend
// it with [Request.WithFeedback] rather than mutating it in place.
package llm
